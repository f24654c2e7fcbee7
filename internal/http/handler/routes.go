package handler

import (
	"github.com/gofiber/fiber/v2"

	"whistlebox/internal/http/middleware"
	"whistlebox/internal/service"
)

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	DB       Pinger
	Services *service.Services
	Auth     *middleware.Authenticator
	Jobs     JobRunner

	// ReceiptLimiter guards /wbtip. Nil disables limiting.
	ReceiptLimiter fiber.Handler
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// only translate between HTTP and the services.
func RegisterRoutes(app *fiber.App, d Deps) {
	s := d.Services

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	app.Post("/submissions", FinalizeSubmission(s.Lifecycle))

	limiter := d.ReceiptLimiter
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	wb := app.Group("/wbtip", limiter)
	wb.Get("/", GetWhistleblowerTip(s.WhistleblowerTips))
	wb.Delete("/", DeleteWhistleblowerTip(s.WhistleblowerTips))
	wb.Get("/comments", ListWhistleblowerComments(s.WhistleblowerTips, s.Comments))
	wb.Post("/comments", AddWhistleblowerComment(s.WhistleblowerTips, s.Comments))
	wb.Get("/messages/:receiver_id", ListWhistleblowerMessages(s.Messages))
	wb.Post("/messages/:receiver_id", AddWhistleblowerMessage(s.Messages))

	asReceiver := d.Auth.Require(middleware.RoleReceiver)
	app.Get("/receiver/tips", asReceiver, ListMyReceiverTips(s.ReceiverTips))

	rt := app.Group("/rtip/:id", asReceiver, OwnReceiverTip(s.ReceiverTips))
	rt.Get("/", GetReceiverTip(s.ReceiverTips))
	rt.Put("/", UpdateReceiverTip(s.ReceiverTips, s.Lifecycle))
	rt.Delete("/", RemoveReceiverTip(s.Lifecycle))
	rt.Post("/vote", CastVote(s.ReceiverTips))
	rt.Delete("/total", DeleteSubmission(s.Lifecycle))
	rt.Get("/siblings", ListSiblings(s.ReceiverTips))
	rt.Get("/receivers", ListTipReceivers(s.ReceiverTips))
	rt.Get("/tips", ListOtherTips(s.ReceiverTips))
	rt.Get("/comments", ListReceiverComments(s.ReceiverTips, s.Comments))
	rt.Post("/comments", AddReceiverComment(s.ReceiverTips, s.Comments))
	rt.Get("/messages", ListReceiverMessages(s.Messages))
	rt.Post("/messages", AddReceiverMessage(s.Messages))
	rt.Get("/files", ListReceiverFiles(s.Files))
	rt.Get("/files/:rfile_id", DownloadReceiverFile(s.Files))

	admin := app.Group("/admin", d.Auth.Require(middleware.RoleAdmin))
	admin.Get("/tips", listHandler(s.Lifecycle.ListInternalTips))
	admin.Get("/receivertips", listHandler(s.ReceiverTips.ListAll))
	admin.Get("/whistleblowertips", listHandler(s.WhistleblowerTips.ListAll))
	admin.Get("/comments", listHandler(s.Comments.ListAll))
	admin.Get("/files", listHandler(s.Files.ListAll))
	admin.Get("/counts", TipCounts(s.Lifecycle))
	admin.Delete("/tips/:id", AdminDeleteTip(s.Lifecycle))
	admin.Get("/contexts/:id", GetContext(s.Directory))
	admin.Put("/contexts/:id", PutContext(s.Directory))
	admin.Get("/contexts/:id/tips", ListContextTips(s.Lifecycle))
	admin.Get("/receivers/:id", GetReceiver(s.Directory))
	admin.Put("/receivers/:id", PutReceiver(s.Directory))
	admin.Post("/jobs/sweep", RunSweep(d.Jobs))

	sys := app.Group("/system", d.Auth.Require(middleware.RoleSystem))
	sys.Get("/notifications/:kind", ListPendingNotifications(s.ReceiverTips, s.Comments, s.Messages))
	sys.Put("/notifications/:kind/:id", SetNotificationMark(s.ReceiverTips, s.Comments, s.Messages))
	sys.Get("/files", ListFiles(s.Files))
	sys.Post("/files", RegisterFile(s.Files))
	sys.Put("/files/:id/mark", SetFileMark(s.Files))
	sys.Post("/tips/:id/deliver", DeliverFiles(s.Files))
	sys.Post("/tips/:id/comments", AddSystemComment(s.Comments))
}
