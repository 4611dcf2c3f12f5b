package envelope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"luckyEnvelope/domain"
	"luckyEnvelope/pkg/logger"
	"luckyEnvelope/pkg/metrics"
	"luckyEnvelope/pkg/uaparse"
	"math/rand"

	"gorm.io/datatypes"
)

// SessionRepository contract interface
type SessionRepository interface {
	FindByKey(ctx context.Context, key string) (domain.Session, error)
	Create(ctx context.Context, session *domain.Session) (bool, error)
	CommitPick(ctx context.Context, key string, amount int64, name string, visit *domain.Visit) (int64, error)
}

// GeoResolver maps an origin IP to an ISO country code, "Unknown" on miss.
type GeoResolver interface {
	Country(ip string) string
}

type envelopeService struct {
	sessionRepo    SessionRepository
	geo            GeoResolver
	loopbackTestIP string
	newSeed        func() int64
}

func NewEnvelopeService(sessionRepo SessionRepository, geo GeoResolver, loopbackTestIP string) *envelopeService {
	if loopbackTestIP == "" {
		loopbackTestIP = DefaultLoopbackTestIP
	}

	return &envelopeService{
		sessionRepo:    sessionRepo,
		geo:            geo,
		loopbackTestIP: loopbackTestIP,
		newSeed: func() int64 {
			return rand.Int63n(1_000_000_000)
		},
	}
}

// Assign answers "what are this visitor's envelope amounts, and have they
// already picked?". The amounts are pre-assigned per session, not drawn at
// pick time, so the same visitor sees the same ordering on every reload.
func (s *envelopeService) Assign(ctx context.Context, ip, userAgent, name string) (domain.EnvelopeAssignment, error) {
	if err := ctx.Err(); err != nil {
		return domain.EnvelopeAssignment{}, fmt.Errorf("context error: %w", err)
	}

	ip = NormalizeIP(ip, s.loopbackTestIP)
	key := DeriveKey(ip, userAgent)

	session, err := s.sessionRepo.FindByKey(ctx, key)
	if err == nil {
		return assignmentFrom(session), nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		logger.Error("Failed to look up session", err)
		return domain.EnvelopeAssignment{}, err
	}

	country := s.geo.Country(ip)
	seed := s.newSeed()

	newSession := &domain.Session{
		SessionKey:   key,
		IP:           ip,
		UserAgentRaw: userAgent,
		ShuffleSeed:  seed,
		Country:      country,
	}
	if name != "" {
		newSession.Name = &name
	}

	created, err := s.sessionRepo.Create(ctx, newSession)
	if err != nil {
		logger.Error("Failed to create session", err)
		return domain.EnvelopeAssignment{}, err
	}
	if !created {
		// Lost a first-view race; the surviving row owns the seed.
		session, err = s.sessionRepo.FindByKey(ctx, key)
		if err != nil {
			logger.Error("Failed to re-read session after insert conflict", err)
			return domain.EnvelopeAssignment{}, err
		}

		return assignmentFrom(session), nil
	}

	metrics.SessionCreatedTotal.Inc()

	return domain.EnvelopeAssignment{
		Amounts:   Shuffle(AmountsFor(country), seed),
		Country:   country,
		HasPicked: false,
	}, nil
}

// assignmentFrom replays the stored seed against the stored country's table,
// not a freshly resolved one, so the assignment survives reloads even when
// geo resolution drifts mid-session.
func assignmentFrom(session domain.Session) domain.EnvelopeAssignment {
	return domain.EnvelopeAssignment{
		Amounts:      Shuffle(AmountsFor(session.Country), session.ShuffleSeed),
		Country:      session.Country,
		HasPicked:    session.HasPicked,
		PickedAmount: session.PickedAmount,
	}
}

// RecordPick persists the visitor's final choice exactly once per session.
// On rejection the result carries the originally recorded amount.
func (s *envelopeService) RecordPick(ctx context.Context, ip, userAgent string, req domain.PickRequest) (domain.PickResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.PickResult{}, fmt.Errorf("context error: %w", err)
	}

	ip = NormalizeIP(ip, s.loopbackTestIP)
	key := DeriveKey(ip, userAgent)

	session, err := s.sessionRepo.FindByKey(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		logger.Error("Failed to look up session", err)
		return domain.PickResult{}, err
	}
	haveSession := err == nil

	if haveSession && session.HasPicked {
		metrics.PickConflictTotal.Inc()
		return domain.PickResult{
			Country:      session.Country,
			PickedAmount: session.PickedAmount,
		}, domain.ErrAlreadyPicked
	}

	country := s.geo.Country(ip)

	name := req.Name
	if name == "" {
		name = "Anonymous"
	}

	var amount int64
	if req.Amount != nil {
		amount = *req.Amount
	}

	visit, err := buildPickVisit(ip, userAgent, name, amount, req)
	if err != nil {
		logger.Error("Failed to encode visit payload", err)
		return domain.PickResult{}, err
	}

	_, err = s.sessionRepo.CommitPick(ctx, key, amount, name, visit)
	if errors.Is(err, domain.ErrAlreadyPicked) {
		// A concurrent pick won between the read above and the commit; the
		// visit row was rolled back with it. Serve the winner's amount.
		session, err = s.sessionRepo.FindByKey(ctx, key)
		if err != nil {
			logger.Error("Failed to re-read session after pick conflict", err)
			return domain.PickResult{}, err
		}

		metrics.PickConflictTotal.Inc()
		return domain.PickResult{
			Country:      session.Country,
			PickedAmount: session.PickedAmount,
		}, domain.ErrAlreadyPicked
	}
	if err != nil {
		logger.Error("Failed to commit pick", err)
		return domain.PickResult{}, err
	}

	metrics.PickCommitTotal.Inc()
	metrics.VisitLoggedTotal.Inc()

	return domain.PickResult{
		VisitID:      visit.ID,
		Country:      country,
		PickedAmount: &amount,
	}, nil
}

func buildPickVisit(ip, userAgent, name string, amount int64, req domain.PickRequest) (*domain.Visit, error) {
	descriptor := uaparse.Parse(userAgent)
	uaJSON, err := json.Marshal(descriptor)
	if err != nil {
		return nil, err
	}

	// The client hints blob also carries the choice itself, mirroring what
	// the frontend submits.
	hints := make(map[string]any, len(req.ClientHints)+2)
	for k, v := range req.ClientHints {
		hints[k] = v
	}
	hints["selectedEnvelope"] = req.SelectedEnvelope
	hints["amount"] = req.Amount

	hintsJSON, err := json.Marshal(hints)
	if err != nil {
		return nil, err
	}

	return &domain.Visit{
		Name:             name,
		IP:               ip,
		UserAgentRaw:     userAgent,
		UAJson:           datatypes.JSON(uaJSON),
		LuckyMoneyAmount: amount,
		ClientHints:      datatypes.JSON(hintsJSON),
	}, nil
}

// Draw is the legacy stateless flow: a throwaway seed per call, no session
// read or write, so repeated calls reshuffle freely.
func (s *envelopeService) Draw(ctx context.Context, ip string) (domain.EnvelopeAssignment, error) {
	if err := ctx.Err(); err != nil {
		return domain.EnvelopeAssignment{}, fmt.Errorf("context error: %w", err)
	}

	ip = NormalizeIP(ip, s.loopbackTestIP)
	country := s.geo.Country(ip)

	return domain.EnvelopeAssignment{
		Amounts:   Shuffle(AmountsFor(country), s.newSeed()),
		Country:   country,
		HasPicked: false,
	}, nil
}
