package api

import (
	"fmt"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup               = "/api"
	LoginRoute               = "/auth/login"
	StoresRoute              = "/stores"
	MembersRoute             = "/members"
	MemberRoute              = "/members/:id"
	MemberTransactionsRoute  = "/members/:id/transactions"
	MemberAuditRoute         = "/members/:id/audit"
	MemberNotesRoute         = "/members/:id/notes"
	NoteRoute                = "/notes/:id"
	TransactionsRoute        = "/transactions"
	AttemptRoute             = "/transactions/attempts/:key"
	MenuRoute                = "/menu"
	OrdersRoute              = "/orders"
	OrderRoute               = "/orders/:id"
	AdminMenuRoute           = "/admin/menu"
	AdminMenuItemRoute       = "/admin/menu/:id"
	AdminMenuCategoriesRoute = "/admin/menu/categories"
	AdminReportRoute         = "/admin/reports/:name"
	AdminReconciliationRoute = "/admin/reconciliation"
)

type RouterArgs struct {
	Logger        *logrus.Logger
	AuthService   AuthServicer
	LedgerService LedgerServicer
	OrderService  OrderServicer
	MemberService MemberServicer
	MenuService   MenuServicer
	StoreService  StoreServicer
	NoteService   NoteServicer
	ReportService ReportServicer
	JWTSecretKey  []byte
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("new router: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	authHandler := NewAuthHandler(args.AuthService)
	membersHandler := NewMembersHandler(args.MemberService, args.LedgerService)
	transactionsHandler := NewTransactionsHandler(args.LedgerService)
	ordersHandler := NewOrdersHandler(args.OrderService)
	menuHandler := NewMenuHandler(args.MenuService)
	storesHandler := NewStoresHandler(args.StoreService)
	notesHandler := NewNotesHandler(args.NoteService)
	reportsHandler := NewReportsHandler(args.ReportService)

	api := r.Group(RouteGroup)

	api.POST(LoginRoute, authHandler.Login)

	api.Use(middlewares.AuthRequired(args.JWTSecretKey))
	// ниже все роуты группы требуют авторизованного сотрудника.
	api.GET(StoresRoute, storesHandler.Index)

	api.GET(MembersRoute, membersHandler.Index)
	api.POST(MembersRoute, membersHandler.Create)
	api.GET(MemberRoute, membersHandler.Show)
	api.PATCH(MemberRoute, membersHandler.Update)
	api.DELETE(MemberRoute, middlewares.RoleRequired(domain.RoleAdmin), membersHandler.Delete)
	api.GET(MemberAuditRoute, membersHandler.Audit)

	api.GET(MemberTransactionsRoute, transactionsHandler.MemberIndex)
	api.POST(MemberTransactionsRoute, transactionsHandler.Create)
	api.GET(TransactionsRoute, transactionsHandler.Index)
	api.GET(AttemptRoute, transactionsHandler.Attempt)

	api.GET(MemberNotesRoute, notesHandler.Index)
	api.PUT(MemberNotesRoute, notesHandler.Upsert)
	api.DELETE(NoteRoute, notesHandler.Delete)

	api.GET(MenuRoute, menuHandler.Available)

	api.POST(OrdersRoute, ordersHandler.Create)
	api.GET(OrderRoute, ordersHandler.Show)

	admin := api.Group("", middlewares.RoleRequired(domain.RoleAdmin))
	admin.GET(AdminMenuRoute, menuHandler.Index)
	admin.POST(AdminMenuRoute, menuHandler.Create)
	admin.GET(AdminMenuCategoriesRoute, menuHandler.Categories)
	admin.PATCH(AdminMenuItemRoute, menuHandler.Update)
	admin.DELETE(AdminMenuItemRoute, menuHandler.Delete)
	admin.GET(AdminReportRoute, reportsHandler.Show)
	admin.GET(AdminReconciliationRoute, ordersHandler.Unreconciled)
	return r, nil
}
