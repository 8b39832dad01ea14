package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/opsgraph/backend/pkg/ai"
	"github.com/opsgraph/backend/pkg/common"
	"github.com/opsgraph/backend/pkg/store"
)

type fakeStore struct {
	calls      []string
	incidents  map[string]*common.IncidentRecord
	products   map[string]string
	cloneEdges map[string]string
	passages   []store.Passage

	upsertErr error
	linkErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		incidents:  map[string]*common.IncidentRecord{},
		products:   map[string]string{},
		cloneEdges: map[string]string{},
	}
}

func (f *fakeStore) EnsureSchema(ctx context.Context) error {
	f.calls = append(f.calls, "schema")
	return nil
}

func (f *fakeStore) UpsertIncidents(ctx context.Context, records []*common.IncidentRecord) (store.UpsertResult, error) {
	f.calls = append(f.calls, "upsert")
	if f.upsertErr != nil {
		return store.UpsertResult{}, f.upsertErr
	}
	result := store.UpsertResult{}
	for _, r := range records {
		if _, ok := f.incidents[r.Key]; !ok {
			result.NodesCreated++
		}
		f.incidents[r.Key] = r
		if r.Product != nil {
			if _, ok := f.products[r.Product.ID]; !ok {
				result.NodesCreated++
			}
			f.products[r.Product.ID] = r.Product.Name
		}
		result.PropertiesSet++
		for _, p := range r.Passages {
			f.passages = append(f.passages, store.Passage{ID: p.ID, Text: p.Text})
		}
	}
	return result, nil
}

func (f *fakeStore) MergeCloneEdge(ctx context.Context, sourceKey string, targetKey string) (bool, error) {
	f.calls = append(f.calls, "link")
	if f.linkErr != nil {
		return false, f.linkErr
	}
	if _, ok := f.incidents[targetKey]; !ok {
		return false, nil
	}
	f.cloneEdges[sourceKey] = targetKey
	return true, nil
}

func (f *fakeStore) ListPassages(ctx context.Context) ([]store.Passage, error) {
	f.calls = append(f.calls, "list")
	return f.passages, nil
}

func (f *fakeStore) SchemaDescription(ctx context.Context) (string, error) { return "", nil }

func (f *fakeStore) ExecuteQuery(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeStore) NodeCount(ctx context.Context) (int64, error) { return int64(len(f.incidents)), nil }
func (f *fakeStore) Wipe(ctx context.Context) error               { return nil }
func (f *fakeStore) Close(ctx context.Context) error              { return nil }

type fakeIndex struct {
	ensured    bool
	dimensions int
	vectors    map[string][]float32
	upsertErr  error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{vectors: map[string][]float32{}}
}

func (f *fakeIndex) EnsureIndex(ctx context.Context, dimensions int) error {
	f.ensured = true
	f.dimensions = dimensions
	return nil
}

func (f *fakeIndex) UpsertVectors(ctx context.Context, items []store.PassageVector) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, item := range items {
		f.vectors[item.ID] = item.Vector
	}
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, k int) ([]store.ScoredPassage, error) {
	return nil, nil
}

type fakeAI struct {
	dimensions int
	batches    int
	// misalignAfter makes every batch past the given count return one
	// vector too few. Zero disables it.
	misalignAfter int
}

func (f *fakeAI) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", nil
}

func (f *fakeAI) GenerateCompletionWithFormat(ctx context.Context, name string, description string, prompt string, out any, opts ...ai.GenerateOption) error {
	return nil
}

func (f *fakeAI) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	vecs, err := f.GenerateEmbeddings(ctx, [][]byte{input})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeAI) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	f.batches++
	n := len(inputs)
	if f.misalignAfter > 0 && f.batches > f.misalignAfter {
		n--
	}
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = make([]float32, f.dimensions)
	}
	return vecs, nil
}

func (f *fakeAI) ResetMetrics()               {}
func (f *fakeAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func testRecord(key string, passages ...common.PassageRecord) *common.IncidentRecord {
	return &common.IncidentRecord{
		ID:       "id-" + key,
		Key:      key,
		Summary:  "summary for " + key,
		Product:  &common.EntityRef{ID: "prod-1", Name: "Gateway"},
		Category: &common.EntityRef{ID: "cat-1", Name: "Outage"},
		Reporter: &common.PersonRef{AccountID: "acc-1"},
		Assignee: &common.PersonRef{AccountID: "acc-2"},
		Passages: passages,
	}
}

func testClient(t *testing.T, params NewGraphClientParams) *GraphClient {
	t.Helper()
	client, err := NewGraphClient(params)
	if err != nil {
		t.Fatalf("NewGraphClient() error = %v", err)
	}
	return client
}

func TestIngestRejectsInvalidRecordsWithoutAbortingBatch(t *testing.T) {
	client := testClient(t, NewGraphClientParams{})
	fs := newFakeStore()

	invalid := testRecord("INC-2")
	invalid.Reporter = nil

	records := []*common.IncidentRecord{testRecord("INC-1"), invalid, testRecord("INC-3")}

	summary, err := client.Ingest(context.Background(), records, fs)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if summary.IncidentsProcessed != 2 {
		t.Errorf("IncidentsProcessed = %d, want 2", summary.IncidentsProcessed)
	}
	if len(summary.Rejected) != 1 {
		t.Fatalf("Rejected = %d records, want 1", len(summary.Rejected))
	}
	if summary.Rejected[0].Key != "INC-2" {
		t.Errorf("rejected key = %q, want INC-2", summary.Rejected[0].Key)
	}
	if _, ok := fs.incidents["INC-2"]; ok {
		t.Error("invalid record was persisted")
	}
}

func TestIngestAllRejectedReturnsValidationError(t *testing.T) {
	client := testClient(t, NewGraphClientParams{})
	fs := newFakeStore()

	invalid := testRecord("INC-1")
	invalid.Product = nil

	_, err := client.Ingest(context.Background(), []*common.IncidentRecord{invalid}, fs)
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("Ingest() error = %v, want ErrValidation", err)
	}
}

func TestIngestEmptyBatchIsNoop(t *testing.T) {
	client := testClient(t, NewGraphClientParams{})
	fs := newFakeStore()

	summary, err := client.Ingest(context.Background(), nil, fs)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if summary.IncidentsProcessed != 0 || len(summary.Rejected) != 0 {
		t.Errorf("summary = %+v, want empty", summary)
	}
	for _, call := range fs.calls {
		if call == "upsert" {
			t.Error("empty batch reached the store")
		}
	}
}

func TestIngestChunksBatches(t *testing.T) {
	client := testClient(t, NewGraphClientParams{IngestBatchSize: 2})
	fs := newFakeStore()

	records := []*common.IncidentRecord{}
	for i := 0; i < 5; i++ {
		records = append(records, testRecord(fmt.Sprintf("INC-%d", i)))
	}

	summary, err := client.Ingest(context.Background(), records, fs)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if summary.IncidentsProcessed != 5 {
		t.Errorf("IncidentsProcessed = %d, want 5", summary.IncidentsProcessed)
	}

	upserts := 0
	for _, call := range fs.calls {
		if call == "upsert" {
			upserts++
		}
	}
	if upserts != 3 {
		t.Errorf("upsert calls = %d, want 3", upserts)
	}
}

func TestIngestSameBatchTwiceConverges(t *testing.T) {
	client := testClient(t, NewGraphClientParams{})
	fs := newFakeStore()

	// both records share one product
	records := []*common.IncidentRecord{testRecord("INC-1"), testRecord("INC-2")}

	first, err := client.Ingest(context.Background(), records, fs)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(fs.incidents) != 2 {
		t.Fatalf("incidents = %d, want 2", len(fs.incidents))
	}
	if len(fs.products) != 1 {
		t.Errorf("products = %d, want a single node for the shared product", len(fs.products))
	}
	if first.NodesCreated != 3 {
		t.Errorf("first NodesCreated = %d, want 3", first.NodesCreated)
	}

	second, err := client.Ingest(context.Background(), records, fs)
	if err != nil {
		t.Fatalf("Ingest() (second) error = %v", err)
	}
	if len(fs.incidents) != 2 || len(fs.products) != 1 {
		t.Errorf("re-ingest changed the graph: incidents = %d products = %d", len(fs.incidents), len(fs.products))
	}
	if second.NodesCreated != 0 {
		t.Errorf("second NodesCreated = %d, want 0", second.NodesCreated)
	}
	if second.PropertiesSet == 0 {
		t.Error("second PropertiesSet = 0, want the merge work reported")
	}
}

func TestLinkClonesResolvesWithinBatch(t *testing.T) {
	client := testClient(t, NewGraphClientParams{})
	fs := newFakeStore()

	clone := testRecord("INC-2")
	clone.Clones = "INC-1"
	records := []*common.IncidentRecord{clone, testRecord("INC-1")}

	if _, err := client.Ingest(context.Background(), records, fs); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	linked, err := client.LinkClones(context.Background(), records, fs)
	if err != nil {
		t.Fatalf("LinkClones() error = %v", err)
	}
	if linked != 1 {
		t.Errorf("linked = %d, want 1", linked)
	}
	if fs.cloneEdges["INC-2"] != "INC-1" {
		t.Errorf("clone edge = %v, want INC-2 -> INC-1", fs.cloneEdges)
	}
}

func TestLinkClonesSkipsSelfAndMissingTargets(t *testing.T) {
	client := testClient(t, NewGraphClientParams{})
	fs := newFakeStore()

	self := testRecord("INC-1")
	self.Clones = "INC-1"
	dangling := testRecord("INC-2")
	dangling.Clones = "INC-404"
	records := []*common.IncidentRecord{self, dangling}

	if _, err := client.Ingest(context.Background(), records, fs); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	linked, err := client.LinkClones(context.Background(), records, fs)
	if err != nil {
		t.Fatalf("LinkClones() error = %v", err)
	}
	if linked != 0 {
		t.Errorf("linked = %d, want 0", linked)
	}
	if len(fs.cloneEdges) != 0 {
		t.Errorf("clone edges = %v, want none", fs.cloneEdges)
	}
}

func TestLinkClonesSurfacesStoreErrors(t *testing.T) {
	client := testClient(t, NewGraphClientParams{MaxRetries: 1})
	fs := newFakeStore()

	clone := testRecord("INC-2")
	clone.Clones = "INC-1"
	records := []*common.IncidentRecord{clone, testRecord("INC-1")}

	if _, err := client.Ingest(context.Background(), records, fs); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	fs.linkErr = errors.New("connection reset")
	_, err := client.LinkClones(context.Background(), records, fs)
	if err == nil {
		t.Fatal("LinkClones() expected the store failure, got nil")
	}
	if len(fs.cloneEdges) != 0 {
		t.Errorf("clone edges = %v, want none after the failure", fs.cloneEdges)
	}
}

func TestIndexPassagesSkipsEmptyText(t *testing.T) {
	client := testClient(t, NewGraphClientParams{EmbedDimensions: 4})
	fs := newFakeStore()
	fs.passages = []store.Passage{
		{ID: "p1", Text: "root cause was a memory leak"},
		{ID: "p2", Text: ""},
		{ID: "p3", Text: "mitigated by rolling restart"},
	}
	fi := newFakeIndex()
	fa := &fakeAI{dimensions: 4}

	summary, err := client.IndexPassages(context.Background(), fa, fs, fi)
	if err != nil {
		t.Fatalf("IndexPassages() error = %v", err)
	}
	if summary.PassagesIndexed != 2 {
		t.Errorf("PassagesIndexed = %d, want 2", summary.PassagesIndexed)
	}
	if !fi.ensured || fi.dimensions != 4 {
		t.Errorf("index ensured = %v dims = %d, want true/4", fi.ensured, fi.dimensions)
	}
	if _, ok := fi.vectors["p2"]; ok {
		t.Error("empty passage was indexed")
	}
}

func TestIndexPassagesIncrementalSkipsEmbedded(t *testing.T) {
	client := testClient(t, NewGraphClientParams{EmbedDimensions: 4, Incremental: true})
	fs := newFakeStore()
	fs.passages = []store.Passage{
		{ID: "p1", Text: "already embedded", HasEmbedding: true},
		{ID: "p2", Text: "not yet embedded"},
	}
	fi := newFakeIndex()
	fa := &fakeAI{dimensions: 4}

	summary, err := client.IndexPassages(context.Background(), fa, fs, fi)
	if err != nil {
		t.Fatalf("IndexPassages() error = %v", err)
	}
	if summary.PassagesIndexed != 1 {
		t.Errorf("PassagesIndexed = %d, want 1", summary.PassagesIndexed)
	}
	if _, ok := fi.vectors["p1"]; ok {
		t.Error("embedded passage was re-indexed in incremental mode")
	}
}

func TestIndexPassagesMisalignedBatchAborts(t *testing.T) {
	client := testClient(t, NewGraphClientParams{EmbedDimensions: 4, EmbedBatchSize: 1, MaxRetries: 1})
	fs := newFakeStore()
	fs.passages = []store.Passage{
		{ID: "p1", Text: "first passage"},
		{ID: "p2", Text: "second passage"},
	}
	fi := newFakeIndex()
	fa := &fakeAI{dimensions: 4, misalignAfter: 1}

	summary, err := client.IndexPassages(context.Background(), fa, fs, fi)
	if !errors.Is(err, common.ErrAlignment) {
		t.Fatalf("IndexPassages() error = %v, want ErrAlignment", err)
	}
	if summary.PassagesIndexed != 1 {
		t.Errorf("PassagesIndexed = %d, want 1 batch before the abort", summary.PassagesIndexed)
	}
	if _, ok := fi.vectors["p1"]; !ok {
		t.Error("vectors from the batch before the abort were lost")
	}
	if _, ok := fi.vectors["p2"]; ok {
		t.Error("misaligned batch reached the index")
	}
}

func TestIndexPassagesDimensionMismatchAborts(t *testing.T) {
	client := testClient(t, NewGraphClientParams{EmbedDimensions: 8, MaxRetries: 1})
	fs := newFakeStore()
	fs.passages = []store.Passage{{ID: "p1", Text: "some passage"}}
	fi := newFakeIndex()
	fa := &fakeAI{dimensions: 4}

	_, err := client.IndexPassages(context.Background(), fa, fs, fi)
	if !errors.Is(err, common.ErrAlignment) {
		t.Fatalf("IndexPassages() error = %v, want ErrAlignment", err)
	}
	if len(fi.vectors) != 0 {
		t.Errorf("vectors = %v, want none", fi.vectors)
	}
}

func TestIndexPassagesWithoutIndexIsNoop(t *testing.T) {
	client := testClient(t, NewGraphClientParams{})
	fs := newFakeStore()
	fs.passages = []store.Passage{{ID: "p1", Text: "some passage"}}

	summary, err := client.IndexPassages(context.Background(), &fakeAI{dimensions: 4}, fs, nil)
	if err != nil {
		t.Fatalf("IndexPassages() error = %v", err)
	}
	if summary.PassagesIndexed != 0 || summary.IndexEnsured {
		t.Errorf("summary = %+v, want untouched", summary)
	}
}

func TestBuildGraphRunsPhasesInOrder(t *testing.T) {
	client := testClient(t, NewGraphClientParams{EmbedDimensions: 4})
	fs := newFakeStore()
	fi := newFakeIndex()
	fa := &fakeAI{dimensions: 4}

	clone := testRecord("INC-2", common.PassageRecord{ID: "p1", Text: "disk filled up"})
	clone.Clones = "INC-1"
	records := []*common.IncidentRecord{testRecord("INC-1"), clone}

	summary, err := client.BuildGraph(context.Background(), records, fa, fs, fi)
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}
	if summary.Ingest.IncidentsProcessed != 2 {
		t.Errorf("IncidentsProcessed = %d, want 2", summary.Ingest.IncidentsProcessed)
	}
	if summary.CloneEdges != 1 {
		t.Errorf("CloneEdges = %d, want 1", summary.CloneEdges)
	}
	if summary.Index.PassagesIndexed != 1 {
		t.Errorf("PassagesIndexed = %d, want 1", summary.Index.PassagesIndexed)
	}

	// schema before any upsert, every upsert before the first link,
	// every link before the passage listing
	phase := map[string]int{"schema": 0, "upsert": 1, "link": 2, "list": 3}
	last := -1
	for _, call := range fs.calls {
		p, ok := phase[call]
		if !ok {
			continue
		}
		if p < last {
			t.Fatalf("phase %q ran after a later phase: %v", call, fs.calls)
		}
		last = p
	}
}
