package visit

import (
	"context"
	"encoding/json"
	"fmt"
	"luckyEnvelope/business/envelope"
	"luckyEnvelope/domain"
	"luckyEnvelope/pkg/logger"
	"luckyEnvelope/pkg/metrics"
	"luckyEnvelope/pkg/uaparse"

	"gorm.io/datatypes"
)

// latestLimit caps the raw visits listing.
const latestLimit = 50

// VisitRepository contract interface
type VisitRepository interface {
	Create(ctx context.Context, visit *domain.Visit) error
	FindLatest(ctx context.Context, limit int) ([]domain.Visit, error)
}

type visitService struct {
	visitRepo      VisitRepository
	loopbackTestIP string
}

func NewVisitService(visitRepo VisitRepository, loopbackTestIP string) *visitService {
	if loopbackTestIP == "" {
		loopbackTestIP = envelope.DefaultLoopbackTestIP
	}

	return &visitService{
		visitRepo:      visitRepo,
		loopbackTestIP: loopbackTestIP,
	}
}

// Latest returns the newest visit rows, capped at 50, unfiltered.
func (s *visitService) Latest(ctx context.Context) ([]domain.Visit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	visits, err := s.visitRepo.FindLatest(ctx, latestLimit)
	if err != nil {
		logger.Error("Failed to list visits", err)
		return nil, err
	}

	return visits, nil
}

// Track is the legacy form flow: append a visit row with no session
// involvement. A missing name is rejected before anything is persisted.
func (s *visitService) Track(ctx context.Context, ip, userAgent string, req domain.TrackRequest) (domain.Visit, error) {
	if err := ctx.Err(); err != nil {
		return domain.Visit{}, fmt.Errorf("context error: %w", err)
	}

	if req.Name == "" {
		return domain.Visit{}, domain.ErrNameRequired
	}

	ip = envelope.NormalizeIP(ip, s.loopbackTestIP)

	uaJSON, err := json.Marshal(uaparse.Parse(userAgent))
	if err != nil {
		return domain.Visit{}, err
	}

	hintsJSON, err := json.Marshal(req.ClientHints)
	if err != nil {
		return domain.Visit{}, err
	}

	var amount int64
	if req.Amount != nil {
		amount = *req.Amount
	}

	v := &domain.Visit{
		Name:             req.Name,
		IP:               ip,
		UserAgentRaw:     userAgent,
		UAJson:           datatypes.JSON(uaJSON),
		LuckyMoneyAmount: amount,
		ClientHints:      datatypes.JSON(hintsJSON),
	}

	if err := s.visitRepo.Create(ctx, v); err != nil {
		logger.Error("Failed to create visit", err)
		return domain.Visit{}, err
	}

	metrics.VisitLoggedTotal.Inc()

	return *v, nil
}
