// AngelaMos | 2026
// service.go

package exercise

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(
	ctx context.Context,
	createdBy string,
	req CreateExerciseRequest,
) (*Exercise, error) {
	e := &Exercise{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Instructions: req.Instructions,
		MuscleGroup:  strings.ToLower(strings.TrimSpace(req.MuscleGroup)),
		Equipment:    strings.ToLower(strings.TrimSpace(req.Equipment)),
		Difficulty:   req.Difficulty,
		OPTPhase:     req.OPTPhase,
		VideoURL:     req.VideoURL,
	}
	if e.Equipment == "" {
		e.Equipment = "bodyweight"
	}
	if createdBy != "" {
		e.CreatedBy = &createdBy
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Exercise, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateExerciseRequest,
) (*Exercise, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		e.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Instructions != nil {
		e.Instructions = *req.Instructions
	}
	if req.MuscleGroup != nil {
		e.MuscleGroup = strings.ToLower(strings.TrimSpace(*req.MuscleGroup))
	}
	if req.Equipment != nil {
		e.Equipment = strings.ToLower(strings.TrimSpace(*req.Equipment))
	}
	if req.Difficulty != nil {
		e.Difficulty = *req.Difficulty
	}
	if req.OPTPhase != nil {
		e.OPTPhase = *req.OPTPhase
	}
	if req.VideoURL != nil {
		e.VideoURL = req.VideoURL
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) Search(
	ctx context.Context,
	params SearchRequest,
) (*SearchResponse, error) {
	params.Normalize()

	items, total, err := s.repo.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		Exercises: ToExerciseResponseList(items),
		Total:     total,
		Page:      params.Page,
		PageSize:  params.PageSize,
	}, nil
}
