package envelope

import (
	"context"
	"errors"
	"luckyEnvelope/domain"
	"sync"
	"testing"
)

type fakeGeo struct {
	countries map[string]string
}

func (g *fakeGeo) Country(ip string) string {
	if c, ok := g.countries[ip]; ok {
		return c
	}
	return "Unknown"
}

// in-memory session store mirroring the repository contract, with hooks to
// stage writes between a read and a commit
type fakeSessionRepo struct {
	mu           sync.Mutex
	sessions     map[string]*domain.Session
	visits       []*domain.Visit
	nextVisitID  uint
	beforeCreate func()
	beforeCommit func()
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*domain.Session{}}
}

func (r *fakeSessionRepo) FindByKey(_ context.Context, key string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return *s, nil
}

func (r *fakeSessionRepo) Create(_ context.Context, session *domain.Session) (bool, error) {
	if r.beforeCreate != nil {
		r.beforeCreate()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.SessionKey]; ok {
		return false, nil
	}
	copied := *session
	r.sessions[session.SessionKey] = &copied
	return true, nil
}

func (r *fakeSessionRepo) CommitPick(_ context.Context, key string, amount int64, name string, visit *domain.Visit) (int64, error) {
	if r.beforeCommit != nil {
		r.beforeCommit()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if ok && s.HasPicked {
		// the conditional update matched nothing and the visit insert was
		// rolled back with it
		return 0, domain.ErrAlreadyPicked
	}

	r.nextVisitID++
	visit.ID = r.nextVisitID
	r.visits = append(r.visits, visit)

	if !ok {
		return 0, nil
	}

	s.HasPicked = true
	a := amount
	s.PickedAmount = &a
	s.Name = &name
	return 1, nil
}

func (r *fakeSessionRepo) put(session domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := session
	r.sessions[session.SessionKey] = &copied
}

func int64sEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func amountOf(v int64) *int64 {
	return &v
}

func TestAssignCreatesSessionOnFirstView(t *testing.T) {
	repo := newFakeSessionRepo()
	geo := &fakeGeo{countries: map[string]string{"1.2.3.4": "US"}}
	svc := NewEnvelopeService(repo, geo, "")

	got, err := svc.Assign(context.Background(), "1.2.3.4", "UA-A", "Linh")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if got.HasPicked {
		t.Error("fresh session reports has_picked")
	}
	if got.PickedAmount != nil {
		t.Errorf("fresh session reports picked_amount %d", *got.PickedAmount)
	}
	if got.Country != "US" {
		t.Errorf("country = %q, want US", got.Country)
	}
	if !sameMultiset(got.Amounts, []int64{10, 20, 26}) {
		t.Errorf("amounts %v not drawn from the default bucket", got.Amounts)
	}

	key := DeriveKey("1.2.3.4", "UA-A")
	session, ok := repo.sessions[key]
	if !ok {
		t.Fatal("no session row persisted")
	}
	if session.Country != "US" {
		t.Errorf("persisted country = %q, want US", session.Country)
	}
	if session.Name == nil || *session.Name != "Linh" {
		t.Errorf("persisted name = %v, want Linh", session.Name)
	}
}

func TestAssignStableAcrossCalls(t *testing.T) {
	repo := newFakeSessionRepo()
	geo := &fakeGeo{countries: map[string]string{"1.2.3.4": "US"}}
	svc := NewEnvelopeService(repo, geo, "")

	// a drifting seed source proves the second call replays the stored seed
	var calls int64
	svc.newSeed = func() int64 {
		calls++
		return calls * 977
	}

	first, err := svc.Assign(context.Background(), "1.2.3.4", "UA-A", "")
	if err != nil {
		t.Fatalf("first Assign: %v", err)
	}
	second, err := svc.Assign(context.Background(), "1.2.3.4", "UA-A", "")
	if err != nil {
		t.Fatalf("second Assign: %v", err)
	}

	if !int64sEqual(first.Amounts, second.Amounts) {
		t.Errorf("amounts changed across calls: %v vs %v", first.Amounts, second.Amounts)
	}
	if first.Country != second.Country {
		t.Errorf("country changed across calls: %q vs %q", first.Country, second.Country)
	}
	if calls != 1 {
		t.Errorf("seed drawn %d times, want 1", calls)
	}
}

func TestAssignUsesStoredSeedAndCountry(t *testing.T) {
	repo := newFakeSessionRepo()
	// geo now claims US, but the stored session was resolved to VN
	geo := &fakeGeo{countries: map[string]string{"1.2.3.4": "US"}}
	svc := NewEnvelopeService(repo, geo, "")

	key := DeriveKey("1.2.3.4", "UA-A")
	repo.put(domain.Session{
		SessionKey:  key,
		IP:          "1.2.3.4",
		ShuffleSeed: 42,
		Country:     "VN",
	})

	got, err := svc.Assign(context.Background(), "1.2.3.4", "UA-A", "")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if got.Country != "VN" {
		t.Errorf("country = %q, want stored VN", got.Country)
	}
	want := Shuffle(AmountsFor("VN"), 42)
	if !int64sEqual(got.Amounts, want) {
		t.Errorf("amounts = %v, want %v from stored seed", got.Amounts, want)
	}
}

func TestAssignFirstViewRaceRereads(t *testing.T) {
	repo := newFakeSessionRepo()
	geo := &fakeGeo{countries: map[string]string{"1.2.3.4": "US"}}
	svc := NewEnvelopeService(repo, geo, "")

	key := DeriveKey("1.2.3.4", "UA-A")

	// a concurrent first-view wins the insert between our miss and create
	repo.beforeCreate = func() {
		repo.put(domain.Session{
			SessionKey:  key,
			ShuffleSeed: 7,
			Country:     "US",
		})
	}

	got, err := svc.Assign(context.Background(), "1.2.3.4", "UA-A", "")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	want := Shuffle(AmountsFor("US"), 7)
	if !int64sEqual(got.Amounts, want) {
		t.Errorf("amounts = %v, want %v from the surviving row", got.Amounts, want)
	}
}

func TestRecordPickThenReject(t *testing.T) {
	repo := newFakeSessionRepo()
	geo := &fakeGeo{countries: map[string]string{"1.2.3.4": "US"}}
	svc := NewEnvelopeService(repo, geo, "")

	if _, err := svc.Assign(context.Background(), "1.2.3.4", "UA-A", ""); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	result, err := svc.RecordPick(context.Background(), "1.2.3.4", "UA-A", domain.PickRequest{
		Name:   "Linh",
		Amount: amountOf(20),
	})
	if err != nil {
		t.Fatalf("first RecordPick: %v", err)
	}
	if result.PickedAmount == nil || *result.PickedAmount != 20 {
		t.Fatalf("first pick amount = %v, want 20", result.PickedAmount)
	}
	if result.VisitID == 0 {
		t.Error("first pick did not log a visit")
	}

	// second pick submits a different amount and must get the first one back
	result, err = svc.RecordPick(context.Background(), "1.2.3.4", "UA-A", domain.PickRequest{
		Name:   "Linh",
		Amount: amountOf(26),
	})
	if !errors.Is(err, domain.ErrAlreadyPicked) {
		t.Fatalf("second RecordPick error = %v, want ErrAlreadyPicked", err)
	}
	if result.PickedAmount == nil || *result.PickedAmount != 20 {
		t.Fatalf("second pick returned amount %v, want the original 20", result.PickedAmount)
	}

	if len(repo.visits) != 1 {
		t.Errorf("visit rows = %d, want 1", len(repo.visits))
	}
}

func TestRecordPickRaceLoserGetsWinnerAmount(t *testing.T) {
	repo := newFakeSessionRepo()
	geo := &fakeGeo{countries: map[string]string{"1.2.3.4": "US"}}
	svc := NewEnvelopeService(repo, geo, "")

	key := DeriveKey("1.2.3.4", "UA-A")
	repo.put(domain.Session{
		SessionKey:  key,
		ShuffleSeed: 3,
		Country:     "US",
	})

	// a second tab commits between our read and our commit
	repo.beforeCommit = func() {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		s := repo.sessions[key]
		s.HasPicked = true
		s.PickedAmount = amountOf(26)
		repo.beforeCommit = nil
	}

	result, err := svc.RecordPick(context.Background(), "1.2.3.4", "UA-A", domain.PickRequest{
		Amount: amountOf(10),
	})
	if !errors.Is(err, domain.ErrAlreadyPicked) {
		t.Fatalf("error = %v, want ErrAlreadyPicked", err)
	}
	if result.PickedAmount == nil || *result.PickedAmount != 26 {
		t.Fatalf("loser saw amount %v, want the winner's 26", result.PickedAmount)
	}
	if len(repo.visits) != 0 {
		t.Errorf("loser logged %d visit rows, want 0", len(repo.visits))
	}
}

func TestRecordPickWithoutSessionStillLogs(t *testing.T) {
	repo := newFakeSessionRepo()
	geo := &fakeGeo{}
	svc := NewEnvelopeService(repo, geo, "")

	result, err := svc.RecordPick(context.Background(), "8.8.8.8", "UA-A", domain.PickRequest{
		Amount: amountOf(10),
	})
	if err != nil {
		t.Fatalf("RecordPick: %v", err)
	}
	if result.VisitID == 0 {
		t.Error("visit not logged")
	}
	if len(repo.sessions) != 0 {
		t.Errorf("pick created %d sessions, want 0", len(repo.sessions))
	}
}

func TestRecordPickDefaultsAnonymousName(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewEnvelopeService(repo, &fakeGeo{}, "")

	if _, err := svc.RecordPick(context.Background(), "8.8.8.8", "UA-A", domain.PickRequest{}); err != nil {
		t.Fatalf("RecordPick: %v", err)
	}
	if len(repo.visits) != 1 || repo.visits[0].Name != "Anonymous" {
		t.Fatalf("visit name not defaulted: %+v", repo.visits)
	}
}

func TestRecordPickRemapsLoopback(t *testing.T) {
	repo := newFakeSessionRepo()
	geo := &fakeGeo{countries: map[string]string{"1.55.0.1": "VN"}}
	svc := NewEnvelopeService(repo, geo, "")

	result, err := svc.RecordPick(context.Background(), "127.0.0.1", "UA-A", domain.PickRequest{
		Amount: amountOf(100000),
	})
	if err != nil {
		t.Fatalf("RecordPick: %v", err)
	}
	if result.Country != "VN" {
		t.Errorf("country = %q, want VN via the loopback test address", result.Country)
	}
	if len(repo.visits) != 1 || repo.visits[0].IP != "1.55.0.1" {
		t.Fatalf("visit IP not remapped: %+v", repo.visits)
	}
}

func TestDrawIsStateless(t *testing.T) {
	repo := newFakeSessionRepo()
	geo := &fakeGeo{countries: map[string]string{"203.113.0.1": "VN"}}
	svc := NewEnvelopeService(repo, geo, "")

	got, err := svc.Draw(context.Background(), "203.113.0.1")
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}

	if got.Country != "VN" {
		t.Errorf("country = %q, want VN", got.Country)
	}
	if !sameMultiset(got.Amounts, []int64{100000, 200000, 260000}) {
		t.Errorf("amounts %v not drawn from the localized bucket", got.Amounts)
	}
	if len(repo.sessions) != 0 {
		t.Errorf("stateless draw persisted %d sessions", len(repo.sessions))
	}
}
