package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yukikurage/ticket-tracker-api/internal/models"
	"github.com/yukikurage/ticket-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// CommentService handles ticket comments
type CommentService struct {
	commentRepo repository.CommentRepository
	ticketRepo  repository.TicketRepository
	notifier    Notifier
	log         zerolog.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repository.CommentRepository, ticketRepo repository.TicketRepository, notifier Notifier, log zerolog.Logger) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		ticketRepo:  ticketRepo,
		notifier:    orNop(notifier),
		log:         log.With().Str("component", "comment_service").Logger(),
	}
}

func (s *CommentService) findTicket(ctx context.Context, id uint64) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}
	return ticket, nil
}

// AddComment stores a comment and tells the assignee when someone else wrote it
func (s *CommentService) AddComment(ctx context.Context, ticketID uint64, content, sender string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentRequired
	}

	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TicketID:       ticket.ID,
		Content:        content,
		SenderUsername: sender,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if ticket.AssignedEmployeeUsername != "" && ticket.AssignedEmployeeUsername != sender {
		notify(s.log, "ticket_comment", func() bool {
			return s.notifier.NotifyTicketComment(ticket.AssignedEmployeeUsername, sender, ticket.Title)
		})
	}

	return comment, nil
}

// ListComments returns the comments of a ticket, oldest first
func (s *CommentService) ListComments(ctx context.Context, ticketID uint64) ([]models.Comment, error) {
	if _, err := s.findTicket(ctx, ticketID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByTicketID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
