package service

import (
	"fmt"
	"time"

	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/sirupsen/logrus"
)

type AppServices struct {
	LedgerService *LedgerService
	OrderService  *OrderService
	MemberService *MemberService
	MenuService   *MenuService
	StoreService  *StoreService
	NoteService   *NoteService
	ReportService *ReportService
	AuthService   *AuthService
}

type FactoryArgs struct {
	UOW            uow.UOW
	Locker         MemberLocker
	Publisher      LedgerEventPublisher
	Logger         *logrus.Logger
	JWTSecret      []byte
	Credentials    []StaffCredentials
	ReconcileGrace time.Duration
}

func Factory(args FactoryArgs) (*AppServices, error) {
	ledgerService, err := NewLedgerService(args.UOW, args.Locker, args.Publisher, args.Logger)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	var orderOpts []OrderOption
	if args.ReconcileGrace > 0 {
		orderOpts = append(orderOpts, WithReconcileGrace(args.ReconcileGrace))
	}
	orderService, err := NewOrderService(args.UOW, ledgerService, args.Logger, orderOpts...)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	memberService, err := NewMemberService(args.UOW)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	menuService, err := NewMenuService(args.UOW)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	storeService, err := NewStoreService(args.UOW)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	noteService, err := NewNoteService(args.UOW)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	reportService, err := NewReportService(args.UOW)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	authService, err := NewAuthService(args.JWTSecret, args.Credentials...)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	return &AppServices{
		LedgerService: ledgerService,
		OrderService:  orderService,
		MemberService: memberService,
		MenuService:   menuService,
		StoreService:  storeService,
		NoteService:   noteService,
		ReportService: reportService,
		AuthService:   authService,
	}, nil
}
