package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dossier-backend/internal/config"
	"github.com/yungbote/dossier-backend/internal/graphid"
	"github.com/yungbote/dossier-backend/internal/locks"
	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/repos"
	"github.com/yungbote/dossier-backend/internal/requestdata"
	"github.com/yungbote/dossier-backend/internal/types"
)

// memStore is a single in-memory backing store shared by the fake repos, so a
// test exercises the same cross-collection flow the real service runs against
// Postgres.
type memStore struct {
	mu        sync.Mutex
	dossier   *types.Dossier
	members   map[uuid.UUID]string
	claims    map[string]*types.Claim
	sources   map[string]*types.Source
	findings  map[string]*types.Finding
	edges     map[string]*types.Edge
	revisions []*types.Revision
}

func newMemStore(dossierID uuid.UUID) *memStore {
	return &memStore{
		dossier:  &types.Dossier{ID: dossierID, Title: "Test dossier", Status: "open"},
		members:  map[uuid.UUID]string{},
		claims:   map[string]*types.Claim{},
		sources:  map[string]*types.Source{},
		findings: map[string]*types.Finding{},
		edges:    map[string]*types.Edge{},
	}
}

func (s *memStore) addClaim(claimID, text string) {
	s.claims[claimID] = &types.Claim{
		ID:        uuid.New(),
		DossierID: s.dossier.ID,
		ClaimID:   claimID,
		Text:      text,
		Status:    types.ClaimStatusUnclear,
	}
}

func (s *memStore) addSource(sourceID string) {
	s.sources[sourceID] = &types.Source{
		ID:        uuid.New(),
		DossierID: s.dossier.ID,
		SourceID:  sourceID,
		Title:     sourceID,
	}
}

func findingKey(claimID, producedBy string) string { return claimID + "|" + producedBy }

type fakeDossierRepo struct{ s *memStore }

func (r *fakeDossierRepo) GetByID(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (*types.Dossier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.dossier == nil || r.s.dossier.ID != dossierID {
		return nil, nil
	}
	copied := *r.s.dossier
	return &copied, nil
}

func (r *fakeDossierRepo) MemberRole(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, userID uuid.UUID) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.members[userID], nil
}

type fakeClaimRepo struct{ s *memStore }

func (r *fakeClaimRepo) GetByClaimID(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, claimID string) (*types.Claim, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.claims[claimID]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *fakeClaimRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, claimID string, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.claims[claimID]; ok {
		row.Status = status
		row.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *fakeClaimRepo) ListByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) ([]*types.Claim, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*types.Claim, 0, len(r.s.claims))
	for _, row := range r.s.claims {
		copied := *row
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeClaimRepo) CountByStatus(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]int64{}
	for _, row := range r.s.claims {
		out[row.Status]++
	}
	return out, nil
}

type fakeSourceRepo struct{ s *memStore }

func (r *fakeSourceRepo) ExistingIDs(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, sourceIDs []string) (map[string]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]bool, len(sourceIDs))
	for _, id := range sourceIDs {
		if _, ok := r.s.sources[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (r *fakeSourceRepo) ListByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) ([]*types.Source, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*types.Source, 0, len(r.s.sources))
	for _, row := range r.s.sources {
		copied := *row
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeSourceRepo) CountByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.sources)), nil
}

type fakeFindingRepo struct{ s *memStore }

func (r *fakeFindingRepo) GetEditorFinding(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, claimID string) (*types.Finding, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.findings[findingKey(claimID, graphid.EditorProducer)]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *fakeFindingRepo) Upsert(ctx context.Context, tx *gorm.DB, finding *types.Finding) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if finding.ProducedBy == "" {
		finding.ProducedBy = graphid.EditorProducer
	}
	key := findingKey(finding.ClaimID, finding.ProducedBy)
	now := time.Now().UTC()
	existing, ok := r.s.findings[key]
	if !ok {
		finding.ID = uuid.New()
		finding.CreatedAt = now
		finding.UpdatedAt = now
		copied := *finding
		r.s.findings[key] = &copied
		return true, nil
	}
	existing.FindingID = finding.FindingID
	existing.Verdict = finding.Verdict
	existing.Rationale = finding.Rationale
	existing.Citations = finding.Citations
	existing.UpdatedAt = now
	finding.ID = existing.ID
	return false, nil
}

func (r *fakeFindingRepo) ListByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) ([]*types.Finding, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*types.Finding, 0, len(r.s.findings))
	for _, row := range r.s.findings {
		copied := *row
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeFindingRepo) CountByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.findings)), nil
}

type fakeEdgeRepo struct{ s *memStore }

func (r *fakeEdgeRepo) Upsert(ctx context.Context, tx *gorm.DB, edge *types.Edge) (repos.EdgeUpsertOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := r.s.edges[edge.EdgeID]
	if !ok {
		edge.ID = uuid.New()
		edge.Active = true
		edge.ArchivedAt = nil
		edge.ArchivedReason = ""
		edge.CreatedAt = now
		edge.UpdatedAt = now
		copied := *edge
		r.s.edges[edge.EdgeID] = &copied
		return repos.EdgeInserted, nil
	}
	edge.ID = existing.ID
	if existing.Active {
		return repos.EdgeUnchanged, nil
	}
	existing.Reactivate()
	existing.UpdatedAt = now
	return repos.EdgeReactivated, nil
}

func (r *fakeEdgeRepo) ListActiveBetween(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, fromID, toID string) ([]*types.Edge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.Edge
	for _, row := range r.s.edges {
		if row.Active && row.FromID == fromID && row.ToID == toID {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeEdgeRepo) Archive(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, edgeID string, reason string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.edges[edgeID]; ok {
		row.Archive(reason, at)
		row.UpdatedAt = at
	}
	return nil
}

func (r *fakeEdgeRepo) ListByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, activeOnly bool) ([]*types.Edge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.Edge
	for _, row := range r.s.edges {
		if activeOnly && !row.Active {
			continue
		}
		copied := *row
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeEdgeRepo) CountActive(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, row := range r.s.edges {
		if row.Active {
			count++
		}
	}
	return count, nil
}

type fakeRevisionRepo struct{ s *memStore }

func (r *fakeRevisionRepo) Append(ctx context.Context, tx *gorm.DB, revision *types.Revision) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if revision.ID == uuid.Nil {
		revision.ID = uuid.New()
	}
	if revision.CreatedAt.IsZero() {
		revision.CreatedAt = time.Now().UTC()
	}
	copied := *revision
	r.s.revisions = append(r.s.revisions, &copied)
	return nil
}

func (r *fakeRevisionRepo) ListByEntity(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, entityID string, limit int) ([]*types.Revision, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.Revision
	for _, row := range r.s.revisions {
		if row.EntityID != entityID {
			continue
		}
		copied := *row
		out = append(out, &copied)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type reviewFixture struct {
	store   *memStore
	service ReviewService
	ledger  LedgerService
	actor   requestdata.Actor
}

func newReviewFixture(tb testing.TB, dossierID uuid.UUID) *reviewFixture {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("failed to init logger: %v", err)
	}

	store := newMemStore(dossierID)
	dossierRepo := &fakeDossierRepo{s: store}
	claimRepo := &fakeClaimRepo{s: store}
	sourceRepo := &fakeSourceRepo{s: store}
	findingRepo := &fakeFindingRepo{s: store}
	edgeRepo := &fakeEdgeRepo{s: store}
	revisionRepo := &fakeRevisionRepo{s: store}

	ledger := NewLedgerService(nil, log, revisionRepo)
	dossierService := NewDossierService(nil, log, dossierRepo, claimRepo, sourceRepo, findingRepo, edgeRepo)
	service := NewReviewService(
		nil, log, config.Defaults().Limits, locks.NewKeyedMutex(),
		claimRepo, sourceRepo, findingRepo, edgeRepo,
		ledger, dossierService, nil,
	)

	return &reviewFixture{
		store:   store,
		service: service,
		ledger:  ledger,
		actor:   requestdata.Actor{UserID: uuid.New(), Role: types.RoleEditor},
	}
}

func (f *reviewFixture) revisionCount(entityID string) int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	count := 0
	for _, row := range f.store.revisions {
		if row.EntityID == entityID {
			count++
		}
	}
	return count
}

func (f *reviewFixture) totalRevisions() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.revisions)
}

func TestApplyBatchCreatesFindingStatusAndEdges(t *testing.T) {
	dossierID := uuid.New()
	f := newReviewFixture(t, dossierID)
	f.store.addClaim("c1", "The bridge was completed in 1932.")
	f.store.addSource("s1")

	res, err := f.service.ApplyBatch(context.Background(), dossierID, f.actor, []ReviewItem{{
		ClaimID:           "c1",
		Verdict:           types.VerdictRefutes,
		Rationale:         []string{"Completion records say 1934."},
		RationaleProvided: true,
		Citations:         []types.CitationRef{{SourceID: "s1", Quote: "opened to traffic in 1934"}},
		CitationsProvided: true,
	}})
	if err != nil {
		t.Fatalf("ApplyBatch failed: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item result, got %d", len(res.Items))
	}
	item := res.Items[0]
	if !item.Created {
		t.Fatalf("expected a created finding, got created=false")
	}
	if len(item.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", item.Warnings)
	}

	if got := f.store.claims["c1"].Status; got != types.ClaimStatusRefuted {
		t.Fatalf("claim status = %q, want %q", got, types.ClaimStatusRefuted)
	}

	findingID := graphid.FindingID("c1")
	stored, ok := f.store.findings[findingKey("c1", graphid.EditorProducer)]
	if !ok {
		t.Fatalf("finding row missing")
	}
	if stored.FindingID != findingID || stored.Verdict != types.VerdictRefutes {
		t.Fatalf("finding = (%q, %q), want (%q, %q)", stored.FindingID, stored.Verdict, findingID, types.VerdictRefutes)
	}

	citationEdge := f.store.edges[graphid.EdgeID(dossierID, findingID, "s1", types.RelRefutes)]
	if citationEdge == nil || !citationEdge.Active {
		t.Fatalf("expected active refutes edge finding->source")
	}
	contextEdge := f.store.edges[graphid.EdgeID(dossierID, "c1", findingID, types.RelContextFor)]
	if contextEdge == nil || !contextEdge.Active {
		t.Fatalf("expected active context_for edge claim->finding")
	}

	if res.Counts == nil {
		t.Fatalf("counts missing from batch result")
	}
	if res.Counts.ActiveEdges != 2 || res.Counts.ClaimsRefuted != 1 || res.Counts.Findings != 1 {
		t.Fatalf("counts = %+v, want 2 active edges, 1 refuted claim, 1 finding", res.Counts)
	}

	// create(finding) + status_change(claim) + create(edge) x2
	if got := f.totalRevisions(); got != 4 {
		t.Fatalf("revision count = %d, want 4", got)
	}
}

func TestApplyBatchResubmissionIsIdempotent(t *testing.T) {
	dossierID := uuid.New()
	f := newReviewFixture(t, dossierID)
	f.store.addClaim("c1", "claim text")
	f.store.addSource("s1")

	item := ReviewItem{
		ClaimID:           "c1",
		Verdict:           types.VerdictSupports,
		Rationale:         []string{"matches the source"},
		RationaleProvided: true,
		Citations:         []types.CitationRef{{SourceID: "s1"}},
		CitationsProvided: true,
	}
	ctx := context.Background()
	if _, err := f.service.ApplyBatch(ctx, dossierID, f.actor, []ReviewItem{item}); err != nil {
		t.Fatalf("first ApplyBatch failed: %v", err)
	}
	before := f.totalRevisions()
	activeBefore, _ := (&fakeEdgeRepo{s: f.store}).CountActive(ctx, nil, dossierID)

	res, err := f.service.ApplyBatch(ctx, dossierID, f.actor, []ReviewItem{item})
	if err != nil {
		t.Fatalf("second ApplyBatch failed: %v", err)
	}
	if res.Items[0].Created {
		t.Fatalf("resubmission reported created=true")
	}
	if len(res.Items[0].Warnings) != 0 {
		t.Fatalf("resubmission warnings = %v", res.Items[0].Warnings)
	}

	// The finding upsert logs its update; nothing else moves: no status
	// change, no edge churn.
	if got := f.totalRevisions(); got != before+1 {
		t.Fatalf("revisions after resubmission = %d, want %d", got, before+1)
	}
	activeAfter, _ := (&fakeEdgeRepo{s: f.store}).CountActive(ctx, nil, dossierID)
	if activeAfter != activeBefore {
		t.Fatalf("active edges changed on resubmission: %d -> %d", activeBefore, activeAfter)
	}
	for _, edge := range f.store.edges {
		if !edge.Active {
			t.Fatalf("edge %s archived by resubmission", edge.EdgeID)
		}
	}
}

func TestVerdictChangeArchivesSupersededEdges(t *testing.T) {
	dossierID := uuid.New()
	f := newReviewFixture(t, dossierID)
	f.store.addClaim("c1", "claim text")
	f.store.addSource("s1")

	ctx := context.Background()
	submit := func(verdict string) *BatchResult {
		t.Helper()
		res, err := f.service.ApplyBatch(ctx, dossierID, f.actor, []ReviewItem{{
			ClaimID:           "c1",
			Verdict:           verdict,
			Citations:         []types.CitationRef{{SourceID: "s1"}},
			CitationsProvided: true,
		}})
		if err != nil {
			t.Fatalf("ApplyBatch(%s) failed: %v", verdict, err)
		}
		return res
	}

	submit(types.VerdictSupports)
	findingID := graphid.FindingID("c1")
	supportsID := graphid.EdgeID(dossierID, findingID, "s1", types.RelSupports)
	refutesID := graphid.EdgeID(dossierID, findingID, "s1", types.RelRefutes)
	before := f.totalRevisions()

	res := submit(types.VerdictRefutes)

	supports := f.store.edges[supportsID]
	if supports == nil || supports.Active {
		t.Fatalf("supports edge should be archived")
	}
	if supports.ArchivedReason != types.ArchiveReasonVerdictChanged {
		t.Fatalf("archived reason = %q, want %q", supports.ArchivedReason, types.ArchiveReasonVerdictChanged)
	}
	if supports.ArchivedAt == nil {
		t.Fatalf("archived edge has no archived_at")
	}
	refutes := f.store.edges[refutesID]
	if refutes == nil || !refutes.Active {
		t.Fatalf("refutes edge should be active")
	}
	if got := f.store.claims["c1"].Status; got != types.ClaimStatusRefuted {
		t.Fatalf("claim status = %q, want %q", got, types.ClaimStatusRefuted)
	}

	// update(finding) + status_change(claim) + update(archived edge) +
	// create(new edge); the untouched context_for edge logs nothing.
	if got := f.totalRevisions(); got != before+4 {
		t.Fatalf("revisions after verdict change = %d, want %d", got, before+4)
	}
	if got := f.revisionCount(supportsID); got != 2 {
		t.Fatalf("supports edge revisions = %d, want 2 (create + archive)", got)
	}
	if got := f.revisionCount("c1"); got != 2 {
		t.Fatalf("claim revisions = %d, want 2 status changes", got)
	}
	if res.Counts.ActiveEdges != 2 {
		t.Fatalf("active edges = %d, want 2", res.Counts.ActiveEdges)
	}

	// Flipping back reactivates the archived row instead of inserting.
	submit(types.VerdictSupports)
	supports = f.store.edges[supportsID]
	if supports == nil || !supports.Active {
		t.Fatalf("supports edge should be reactivated")
	}
	if supports.ArchivedAt != nil || supports.ArchivedReason != "" {
		t.Fatalf("reactivated edge kept archival state: %+v", supports)
	}
}

func TestUnknownClaimWarnsAndSkipsSiblingsUnaffected(t *testing.T) {
	dossierID := uuid.New()
	f := newReviewFixture(t, dossierID)
	f.store.addClaim("c1", "claim text")

	res, err := f.service.ApplyBatch(context.Background(), dossierID, f.actor, []ReviewItem{
		{ClaimID: "ghost", Verdict: types.VerdictSupports},
		{ClaimID: "c1", Verdict: types.VerdictSupports},
	})
	if err != nil {
		t.Fatalf("ApplyBatch failed: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected both item results, got %d", len(res.Items))
	}

	ghost := res.Items[0]
	if ghost.Created {
		t.Fatalf("unknown claim reported created=true")
	}
	if len(ghost.Warnings) != 1 || ghost.Warnings[0] != WarnClaimNotFound {
		t.Fatalf("ghost warnings = %v, want [%s]", ghost.Warnings, WarnClaimNotFound)
	}
	if _, ok := f.store.findings[findingKey("ghost", graphid.EditorProducer)]; ok {
		t.Fatalf("finding persisted for unknown claim")
	}

	if !res.Items[1].Created {
		t.Fatalf("valid sibling was not applied")
	}
	if got := f.store.claims["c1"].Status; got != types.ClaimStatusSupported {
		t.Fatalf("sibling claim status = %q, want %q", got, types.ClaimStatusSupported)
	}
}

func TestMissingSourceCitationIsPrunedWithWarning(t *testing.T) {
	dossierID := uuid.New()
	f := newReviewFixture(t, dossierID)
	f.store.addClaim("c1", "claim text")
	f.store.addSource("s1")

	res, err := f.service.ApplyBatch(context.Background(), dossierID, f.actor, []ReviewItem{{
		ClaimID: "c1",
		Verdict: types.VerdictMixed,
		Citations: []types.CitationRef{
			{SourceID: "s1"},
			{SourceID: "s404"},
		},
		CitationsProvided: true,
	}})
	if err != nil {
		t.Fatalf("ApplyBatch failed: %v", err)
	}

	item := res.Items[0]
	if len(item.Warnings) != 1 || !strings.HasPrefix(item.Warnings[0], WarnSourceMissingPrefix) {
		t.Fatalf("warnings = %v, want one %s*", item.Warnings, WarnSourceMissingPrefix)
	}
	if item.Warnings[0] != WarnSourceMissingPrefix+"s404" {
		t.Fatalf("warning = %q, want %q", item.Warnings[0], WarnSourceMissingPrefix+"s404")
	}

	stored := f.store.findings[findingKey("c1", graphid.EditorProducer)]
	if stored == nil {
		t.Fatalf("finding not persisted despite valid citation")
	}
	citations := decodeCitations(stored.Citations)
	if len(citations) != 1 || citations[0].SourceID != "s1" {
		t.Fatalf("stored citations = %v, want only s1", citations)
	}

	findingID := graphid.FindingID("c1")
	if _, ok := f.store.edges[graphid.EdgeID(dossierID, findingID, "s404", types.RelMentions)]; ok {
		t.Fatalf("edge created toward missing source")
	}
	if got := f.store.claims["c1"].Status; got != types.ClaimStatusUnclear {
		t.Fatalf("mixed verdict should leave status unclear, got %q", got)
	}
}

func TestPartialUpdateRetainsOmittedFields(t *testing.T) {
	dossierID := uuid.New()
	f := newReviewFixture(t, dossierID)
	f.store.addClaim("c1", "claim text")
	f.store.addSource("s1")

	ctx := context.Background()
	if _, err := f.service.ApplyBatch(ctx, dossierID, f.actor, []ReviewItem{{
		ClaimID:           "c1",
		Verdict:           types.VerdictSupports,
		Rationale:         []string{"first pass"},
		RationaleProvided: true,
		Citations:         []types.CitationRef{{SourceID: "s1", Locator: "p. 12"}},
		CitationsProvided: true,
	}}); err != nil {
		t.Fatalf("first ApplyBatch failed: %v", err)
	}

	// Verdict-only resubmission: omitted fields keep their stored values.
	if _, err := f.service.ApplyBatch(ctx, dossierID, f.actor, []ReviewItem{{
		ClaimID: "c1",
		Verdict: types.VerdictRefutes,
	}}); err != nil {
		t.Fatalf("second ApplyBatch failed: %v", err)
	}

	stored := f.store.findings[findingKey("c1", graphid.EditorProducer)]
	if stored.Verdict != types.VerdictRefutes {
		t.Fatalf("verdict = %q, want %q", stored.Verdict, types.VerdictRefutes)
	}
	rationale := decodeRationale(stored.Rationale)
	if len(rationale) != 1 || rationale[0] != "first pass" {
		t.Fatalf("rationale = %v, want retained [first pass]", rationale)
	}
	citations := decodeCitations(stored.Citations)
	if len(citations) != 1 || citations[0].SourceID != "s1" || citations[0].Locator != "p. 12" {
		t.Fatalf("citations = %v, want retained s1", citations)
	}

	// Sending citations explicitly empty clears them.
	if _, err := f.service.ApplyBatch(ctx, dossierID, f.actor, []ReviewItem{{
		ClaimID:           "c1",
		Verdict:           types.VerdictRefutes,
		Citations:         []types.CitationRef{},
		CitationsProvided: true,
	}}); err != nil {
		t.Fatalf("third ApplyBatch failed: %v", err)
	}
	stored = f.store.findings[findingKey("c1", graphid.EditorProducer)]
	if got := decodeCitations(stored.Citations); len(got) != 0 {
		t.Fatalf("citations = %v, want cleared", got)
	}
}

func TestHistoryReturnsEntityRevisionsInOrder(t *testing.T) {
	dossierID := uuid.New()
	f := newReviewFixture(t, dossierID)
	f.store.addClaim("c1", "claim text")

	ctx := context.Background()
	for _, verdict := range []string{types.VerdictSupports, types.VerdictRefutes, types.VerdictSupports} {
		if _, err := f.service.ApplyBatch(ctx, dossierID, f.actor, []ReviewItem{{ClaimID: "c1", Verdict: verdict}}); err != nil {
			t.Fatalf("ApplyBatch(%s) failed: %v", verdict, err)
		}
	}

	revisions, err := f.ledger.History(ctx, dossierID, "c1", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	// unclear->supported, supported->refuted, refuted->supported
	if len(revisions) != 3 {
		t.Fatalf("claim history length = %d, want 3", len(revisions))
	}
	for i, rev := range revisions {
		if rev.Action != types.ActionStatusChange {
			t.Fatalf("revision %d action = %q, want %q", i, rev.Action, types.ActionStatusChange)
		}
		if rev.ByRole != types.RoleEditor {
			t.Fatalf("revision %d by_role = %q, want %q", i, rev.ByRole, types.RoleEditor)
		}
	}

	limited, err := f.ledger.History(ctx, dossierID, "c1", 2)
	if err != nil {
		t.Fatalf("History with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited history length = %d, want 2", len(limited))
	}
}
