package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/repository/contract"
	"medscribe-be/internal/repository/specification"
)

type CaseRepository struct {
	mu    sync.RWMutex
	cases map[string]entity.Case
}

var _ contract.CaseRepository = (*CaseRepository)(nil)

func NewCaseRepository() *CaseRepository {
	return &CaseRepository{cases: make(map[string]entity.Case)}
}

func (r *CaseRepository) Create(ctx context.Context, c *entity.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.UploadedAt.IsZero() {
		c.UploadedAt = time.Now().UTC()
	}
	r.cases[c.Id] = *c
	return nil
}

func (r *CaseRepository) query(specs []specification.Specification) ([]*entity.Case, error) {
	r.mu.RLock()
	var out []*entity.Case
	for _, c := range r.cases {
		cp := c
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	// stable base order so results without an explicit sort are deterministic
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })

	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.UserOwnedBy:
			out = filterCases(out, func(c *entity.Case) bool { return c.UserId == s.UserID })
		case specification.ByID:
			out = filterCases(out, func(c *entity.Case) bool { return c.Id == s.ID })
		case specification.ByIDs:
			set := make(map[string]bool, len(s.IDs))
			for _, id := range s.IDs {
				set[id] = true
			}
			out = filterCases(out, func(c *entity.Case) bool { return set[c.Id] })
		case specification.ExcludingCase:
			out = filterCases(out, func(c *entity.Case) bool { return c.Id != s.CaseID })
		case specification.UploadedBefore:
			r.mu.RLock()
			ref, ok := r.cases[s.CaseID]
			r.mu.RUnlock()
			out = filterCases(out, func(c *entity.Case) bool { return ok && c.UploadedAt.Before(ref.UploadedAt) })
		case specification.FilterBy:
			out = filterCases(out, func(c *entity.Case) bool { return caseField(c, s.Field) == s.Value })
		case specification.MostRecentlyUploaded:
			sortNewest(out)
		case specification.OrderBy:
			if s.Field != "uploaded_at" {
				return nil, ErrUnsupportedSpecification{Spec: spec}
			}
			if s.Desc {
				sortNewest(out)
			} else {
				sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
			}
		case specification.Pagination:
		default:
			return nil, ErrUnsupportedSpecification{Spec: spec}
		}
	}
	return paginate(out, specs), nil
}

func sortNewest(cases []*entity.Case) {
	sort.SliceStable(cases, func(i, j int) bool {
		if cases[i].UploadedAt.Equal(cases[j].UploadedAt) {
			return cases[i].Id > cases[j].Id
		}
		return cases[i].UploadedAt.After(cases[j].UploadedAt)
	})
}

func caseField(c *entity.Case, field string) interface{} {
	switch field {
	case "id":
		return c.Id
	case "user_id":
		return c.UserId
	case "report_type":
		return c.ReportType
	}
	return nil
}

func filterCases(in []*entity.Case, keep func(*entity.Case) bool) []*entity.Case {
	out := in[:0]
	for _, c := range in {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func (r *CaseRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Case, error) {
	cases, err := r.query(specs)
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, nil
	}
	return cases[0], nil
}

func (r *CaseRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Case, error) {
	return r.query(specs)
}

func (r *CaseRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	cases, err := r.query(specs)
	return int64(len(cases)), err
}

func (r *CaseRepository) update(caseId string, fn func(c *entity.Case)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[caseId]
	if !ok {
		return nil
	}
	fn(&c)
	r.cases[caseId] = c
	return nil
}

func (r *CaseRepository) MarkIndexed(ctx context.Context, caseId string, chunkCount int, at time.Time) error {
	return r.update(caseId, func(c *entity.Case) {
		c.IndexedAt = &at
		c.ChunkCount = chunkCount
	})
}

func (r *CaseRepository) ClearIndexed(ctx context.Context, caseId string) error {
	return r.update(caseId, func(c *entity.Case) {
		c.IndexedAt = nil
		c.ChunkCount = 0
	})
}

func (r *CaseRepository) MarkInsights(ctx context.Context, caseId string, path string, at time.Time) error {
	return r.update(caseId, func(c *entity.Case) {
		c.InsightsPath = path
		c.InsightsAt = &at
	})
}
