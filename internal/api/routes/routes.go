package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hirevid/hirevid/internal/api/handlers"
	"github.com/hirevid/hirevid/internal/api/middleware"
)

type Deps struct {
	Auth      *handlers.AuthHandler
	Role      *handlers.RoleHandler
	Question  *handlers.QuestionHandler
	Interview *handlers.InterviewHandler
	Video     *handlers.VideoHandler
	Stitch    *handlers.StitchHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/oauth/upsert", d.Auth.OAuthUpsert)

	// Candidate-facing routes are token-addressed, no JWT.
	api.GET("/questions/interview/:token", d.Question.ListByToken)
	api.GET("/interviews/link/:token", d.Interview.GetLink)
	api.POST("/interviews/validate/:token", d.Interview.ValidateCandidate)
	api.POST("/interviews/mark-used/:token", d.Interview.MarkUsed)
	api.POST("/interviews/submit/:token", d.Interview.MarkUsed) // legacy alias
	api.POST("/interviews/video-answer/:token", d.Video.SubmitAnswer)
	api.GET("/interviews/video-answers/:token", d.Video.ListAnswers)

	// Interviewer routes (JWT)
	auth := api.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/roles", d.Role.Create)
	auth.GET("/roles", d.Role.ListAll)
	auth.GET("/roles/interviewer/:id", d.Role.ListByInterviewer)
	auth.GET("/roles/my-interviewer", d.Role.ListMine)

	auth.POST("/questions", d.Question.Create)
	auth.GET("/questions/role/:role_id", d.Question.ListByRole)
	auth.PUT("/questions/:question_id", d.Question.Update)
	auth.DELETE("/questions/:question_id", d.Question.Delete)
	auth.PUT("/roles/:role_id/questions/reorder", d.Question.Reorder)

	auth.POST("/interviews/invite", d.Interview.Invite)
	auth.GET("/interviews/role/:role_id/links", d.Interview.ListLinksByRole)
	auth.GET("/interviews/responses", d.Video.Responses)
	auth.GET("/interviews/responses/:token", d.Video.ResponseByToken)
	auth.POST("/interviews/stitch-video/:token", d.Stitch.Stitch)
	auth.GET("/interviews/video-proxy", d.Video.Proxy)
}
