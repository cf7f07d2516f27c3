package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
)

type StoreService struct {
	storeRepo StoreRepository
}

func NewStoreService(u uow.UOW) (*StoreService, error) {
	storeRepo, err := uow.GetRepositoryAs[StoreRepository](u, uow.RepositoryName(repoargs.StoreRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &StoreService{storeRepo: storeRepo}, nil
}

func (s *StoreService) List(ctx context.Context) ([]domain.Store, error) {
	stores, err := s.storeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	return stores, nil
}

// NoteService заметки персонала об участнике, по одной на категорию.
type NoteService struct {
	noteRepo NoteRepository
}

func NewNoteService(u uow.UOW) (*NoteService, error) {
	noteRepo, err := uow.GetRepositoryAs[NoteRepository](u, uow.RepositoryName(repoargs.NoteRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &NoteService{noteRepo: noteRepo}, nil
}

func (n *NoteService) List(ctx context.Context, memberID string) ([]domain.Note, error) {
	notes, err := n.noteRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return notes, nil
}

func (n *NoteService) Upsert(ctx context.Context, args repoargs.UpsertNote) (*domain.Note, error) {
	args.Category = strings.TrimSpace(args.Category)
	if args.Category == "" || strings.TrimSpace(args.Content) == "" {
		return nil, fmt.Errorf("%w: category and content are required", domain.ErrInvalidNote)
	}
	note, err := n.noteRepo.Upsert(ctx, args)
	if err != nil {
		if errors.Is(err, domain.ErrForeignKey) {
			return nil, fmt.Errorf("%w: `%s`", domain.ErrMemberNotFound, args.MemberID)
		}
		return nil, fmt.Errorf("saving note: %w", err)
	}
	return note, nil
}

func (n *NoteService) Delete(ctx context.Context, noteID string) error {
	if err := n.noteRepo.Delete(ctx, noteID); err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	return nil
}
