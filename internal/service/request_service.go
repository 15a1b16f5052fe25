package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-pos-inventory/internal/events"
	"go-pos-inventory/internal/model"
	"go-pos-inventory/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TransitionPolicy decides which status changes SetStatus accepts.
type TransitionPolicy string

const (
	// StrictTransitions allows Pending -> Approved | Rejected only.
	StrictTransitions TransitionPolicy = "strict"
	// LegacyTransitions also lets a decided request be overwritten with
	// another terminal status. Neither policy ever returns a request to Pending.
	LegacyTransitions TransitionPolicy = "legacy"
)

func (p TransitionPolicy) allows(from, to model.RequestStatus) bool {
	if !to.Terminal() {
		return false
	}
	if p == LegacyTransitions {
		return true
	}
	return model.CanTransition(from, to)
}

type CreateRequestInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"requested_quantity" validate:"gt=0"`
	// RequestedByName overrides the display name of the requester.
	RequestedByName string `json:"requested_by_name,omitempty" validate:"max=100"`
}

type SetStatusInput struct {
	Status model.RequestStatus `json:"status" validate:"required"`
	Note   string              `json:"note,omitempty"`
}

type RequestService interface {
	Create(ctx context.Context, in CreateRequestInput, actor model.Actor) (*model.Request, error)
	// SetStatus records a decision. It never changes stock: restocking is a
	// separate action on the product.
	SetStatus(ctx context.Context, id uuid.UUID, in SetStatusInput, actor model.Actor) (*model.Request, error)
	Approve(ctx context.Context, id uuid.UUID, note string, actor model.Actor) (*model.Request, error)
	Reject(ctx context.Context, id uuid.UUID, note string, actor model.Actor) (*model.Request, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, filter repository.RequestFilter) ([]model.Request, error)
	ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.Request, error)
	ListByRequester(ctx context.Context, userID uuid.UUID) ([]model.Request, error)
	PendingCount(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error
}

type requestService struct {
	env         Env
	requestRepo repository.RequestRepository
	productRepo repository.ProductRepository
	policy      TransitionPolicy
}

func NewRequestService(env Env, rRepo repository.RequestRepository, pRepo repository.ProductRepository, policy TransitionPolicy) RequestService {
	if policy != LegacyTransitions {
		policy = StrictTransitions
	}
	return &requestService{
		env:         env.withDefaults(),
		requestRepo: rRepo,
		productRepo: pRepo,
		policy:      policy,
	}
}

func (s *requestService) Create(ctx context.Context, in CreateRequestInput, actor model.Actor) (*model.Request, error) {
	in.RequestedByName = strings.TrimSpace(in.RequestedByName)
	if err := validate(&in); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, in.ProductID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, classify(err)
	}

	req := &model.Request{
		ProductID:         product.ID,
		ProductName:       product.Name,
		RequestedQuantity: in.Quantity,
		RequestedByUserID: actor.UserRef(),
		RequestedByName:   in.RequestedByName,
		Status:            model.RequestPending,
		RequestDate:       time.Now().UTC(),
	}
	req.CreatedBy = actor.Audit()
	req.UpdatedBy = actor.Audit()

	if err := s.requestRepo.Create(s.env.DB.WithContext(ctx), req); err != nil {
		// The product was deleted after it was read
		if repository.IsForeignKeyViolation(err) {
			return nil, ErrProductNotFound
		}
		return nil, classify(err)
	}

	if req.RequestedByName == "" && actor.UserID != uuid.Nil {
		req.RequestedByUser = &model.User{Username: actor.Username, FullName: actor.Name}
		req.RequestedByUser.ID = actor.UserID
	}

	s.env.publish(ctx, events.Event{
		Type:        events.RequestUpdate,
		Action:      events.ActionRequestCreated,
		AggregateID: req.ID.String(),
		Data:        requestData(req),
		User:        eventUser(actor),
		Message:     fmt.Sprintf("%s requested %d x %s", req.Requester(), req.RequestedQuantity, req.ProductName),
	})
	return req, nil
}

func (s *requestService) SetStatus(ctx context.Context, id uuid.UUID, in SetStatusInput, actor model.Actor) (*model.Request, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, invalid("status", "must be one of Pending, Approved, Rejected")
	}

	var from model.RequestStatus
	err := s.env.runInTx(ctx, func(tx *gorm.DB) error {
		req, err := s.requestRepo.LockByID(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrRequestNotFound
			}
			return err
		}

		from = req.Status
		if !s.policy.allows(from, in.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, in.Status)
		}

		now := time.Now().UTC()
		req.Status = in.Status
		req.DecidedByUserID = actor.UserRef()
		req.DecidedAt = &now
		req.Note = strings.TrimSpace(in.Note)
		req.UpdatedBy = actor.Audit()
		req.UpdatedAt = now
		return s.requestRepo.UpdateDecision(tx, req)
	})
	if err != nil {
		return nil, classify(err)
	}

	s.env.Metrics.RecordRequestTransition(string(from), string(in.Status))
	s.env.Log.Info("request status changed",
		zap.String("request_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(in.Status)),
		zap.String("user", actor.Audit()),
	)

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data := requestData(updated)
	data["old_status"] = from
	s.env.publish(ctx, events.Event{
		Type:        events.RequestUpdate,
		Action:      events.ActionRequestStatusChanged,
		AggregateID: updated.ID.String(),
		Data:        data,
		User:        eventUser(actor),
		Message:     fmt.Sprintf("%s marked the request for %s as %s", displayName(actor), updated.ProductName, updated.Status),
	})
	return updated, nil
}

func (s *requestService) Approve(ctx context.Context, id uuid.UUID, note string, actor model.Actor) (*model.Request, error) {
	return s.SetStatus(ctx, id, SetStatusInput{Status: model.RequestApproved, Note: note}, actor)
}

func (s *requestService) Reject(ctx context.Context, id uuid.UUID, note string, actor model.Actor) (*model.Request, error) {
	return s.SetStatus(ctx, id, SetStatusInput{Status: model.RequestRejected, Note: note}, actor)
}

func (s *requestService) Get(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	req, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRequestNotFound
		}
		return nil, classify(err)
	}
	return req, nil
}

func (s *requestService) List(ctx context.Context, filter repository.RequestFilter) ([]model.Request, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status", "must be one of Pending, Approved, Rejected")
	}
	requests, err := s.requestRepo.Find(ctx, filter)
	return requests, classify(err)
}

func (s *requestService) ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.Request, error) {
	if !status.Valid() {
		return nil, invalid("status", "must be one of Pending, Approved, Rejected")
	}
	return s.List(ctx, repository.RequestFilter{Status: status})
}

func (s *requestService) ListByRequester(ctx context.Context, userID uuid.UUID) ([]model.Request, error) {
	return s.List(ctx, repository.RequestFilter{RequestedBy: &userID})
}

func (s *requestService) PendingCount(ctx context.Context) (int64, error) {
	n, err := s.requestRepo.CountByStatus(ctx, model.RequestPending)
	return n, classify(err)
}

func (s *requestService) Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	var deleted *model.Request
	err := s.env.runInTx(ctx, func(tx *gorm.DB) error {
		req, err := s.requestRepo.LockByID(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrRequestNotFound
			}
			return err
		}
		deleted = req
		return s.requestRepo.Delete(tx, id)
	})
	if err != nil {
		return classify(err)
	}

	s.env.publish(ctx, events.Event{
		Type:        events.RequestUpdate,
		Action:      events.ActionRequestDeleted,
		AggregateID: deleted.ID.String(),
		Data:        map[string]interface{}{"id": deleted.ID, "product_id": deleted.ProductID},
		User:        eventUser(actor),
		Message:     fmt.Sprintf("%s deleted the request for %s", displayName(actor), deleted.ProductName),
	})
	return nil
}

func requestData(r *model.Request) map[string]interface{} {
	return map[string]interface{}{
		"id":                 r.ID,
		"product_id":         r.ProductID,
		"product_name":       r.ProductName,
		"requested_quantity": r.RequestedQuantity,
		"requested_by":       r.Requester(),
		"status":             r.Status,
	}
}
