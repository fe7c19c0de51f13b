package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Users    *UserHandler
	Projects *ProjectHandler
	Tasks    *TaskHandler
	Tags     *TagHandler
}

// RegisterRoutes mounts the health check and every /api route. All /api
// routes require a bearer token resolved by resolver.
func RegisterRoutes(r *gin.Engine, resolver middleware.PrincipalResolver, h Handlers) {
	r.GET("/health", Health)

	api := r.Group("/api")
	api.Use(middleware.RequireAuth(resolver))
	{
		api.GET("/auth/me", h.Users.Me)
		api.GET("/users", h.Users.LookupUser)

		users := api.Group("/users/me")
		{
			users.GET("", h.Users.Profile)
			users.PATCH("", h.Users.UpdateProfile)
			users.DELETE("", h.Users.DeleteAccount)
			users.GET("/settings", h.Users.Settings)
			users.PATCH("/settings", h.Users.UpdateSettings)
			users.POST("/revoke-tokens", h.Users.RevokeTokens)
		}

		projects := api.Group("/projects")
		{
			projects.GET("", h.Projects.ListProjects)
			projects.POST("", h.Projects.CreateProject)
			projects.GET("/:id", h.Projects.GetProject)
			projects.PATCH("/:id", h.Projects.UpdateProject)
			projects.DELETE("/:id", h.Projects.DeleteProject)

			projects.GET("/:id/members", h.Projects.ListMembers)
			projects.POST("/:id/members", h.Projects.AddMember)
			projects.PATCH("/:id/members/:user_id", h.Projects.ChangeRole)
			projects.DELETE("/:id/members/:user_id", h.Projects.RemoveMember)

			projects.GET("/:id/board", h.Projects.GetBoard)
			projects.POST("/:id/board/columns", h.Projects.CreateColumn)
			projects.PATCH("/:id/board/columns/:column_id", h.Projects.UpdateColumn)
			projects.DELETE("/:id/board/columns/:column_id", h.Projects.DeleteColumn)

			projects.GET("/:id/notes", h.Projects.ListNotes)
			projects.POST("/:id/notes", h.Projects.CreateNote)
			projects.PATCH("/:id/notes/:note_id", h.Projects.UpdateNote)
			projects.DELETE("/:id/notes/:note_id", h.Projects.DeleteNote)

			projects.GET("/:id/documents", h.Projects.ListDocuments)
			projects.POST("/:id/documents", h.Projects.UploadDocument)
			projects.GET("/:id/documents/:document_id", h.Projects.DownloadDocument)
			projects.DELETE("/:id/documents/:document_id", h.Projects.DeleteDocument)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", h.Tasks.ListTasks)
			tasks.POST("", h.Tasks.CreateTask)
			tasks.GET("/export", h.Tasks.ExportTasks)
			tasks.POST("/generate", h.Tasks.GenerateTasks)
			tasks.POST("/voice-to-text", h.Tasks.VoiceToText)
			tasks.GET("/:id", h.Tasks.GetTask)
			tasks.PATCH("/:id", h.Tasks.UpdateTask)
			tasks.DELETE("/:id", h.Tasks.DeleteTask)
			tasks.POST("/:id/assign", h.Tasks.AssignTask)
			tasks.POST("/:id/unassign", h.Tasks.UnassignTask)
			tasks.GET("/:id/subtasks", h.Tasks.ListSubtasks)
			tasks.PUT("/:id/tags", h.Tasks.SetTags)

			tasks.GET("/:id/recurrence", h.Tasks.GetRecurrence)
			tasks.PUT("/:id/recurrence", h.Tasks.SetRecurrence)
			tasks.DELETE("/:id/recurrence", h.Tasks.DeleteRecurrence)

			tasks.GET("/:id/comments", h.Tasks.ListComments)
			tasks.POST("/:id/comments", h.Tasks.CreateComment)
			tasks.PATCH("/:id/comments/:comment_id", h.Tasks.UpdateComment)
			tasks.DELETE("/:id/comments/:comment_id", h.Tasks.DeleteComment)

			tasks.GET("/:id/attachments", h.Tasks.ListAttachments)
			tasks.POST("/:id/attachments", h.Tasks.UploadAttachment)
			tasks.GET("/:id/attachments/:attachment_id", h.Tasks.DownloadAttachment)
			tasks.DELETE("/:id/attachments/:attachment_id", h.Tasks.DeleteAttachment)
		}

		tags := api.Group("/tags")
		{
			tags.GET("", h.Tags.ListTags)
			tags.POST("", h.Tags.CreateTag)
			tags.PATCH("/:id", h.Tags.UpdateTag)
			tags.DELETE("/:id", h.Tags.DeleteTag)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", h.Tags.ListCategories)
			categories.POST("", h.Tags.CreateCategory)
			categories.PATCH("/:id", h.Tags.UpdateCategory)
			categories.DELETE("/:id", h.Tags.DeleteCategory)
		}
	}
}
