package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sampleObservations(start time.Time) []Observation {
	return []Observation{
		{
			Timestamp: start,
			Seller:    "retailer_a",
			Price:     "R$ 1.234,56",
			Title:     "Sample Product Title",
			URL:       "https://example.com/product/1",
		},
		{
			Timestamp: start.Add(time.Minute),
			Seller:    "retailer_b",
			Price:     "R$ 1.199,00",
			Title:     `Title with "quotes", commas`,
			URL:       "https://example.com/product/1",
		},
		{
			Timestamp: start.Add(2 * time.Minute),
			Seller:    "retailer_a",
			Price:     "R$ 1.234,56",
			Title:     "Sample Product Title",
			URL:       "https://example.com/product/1",
		},
	}
}

var testStart = time.Date(2024, 3, 1, 9, 30, 15, 123456000, time.Local)

func TestCSVStoreAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewCSVStore(filepath.Join(t.TempDir(), "data"))

	_, err := store.Load(ctx, "sample_product_1")
	require.ErrorIs(t, err, ErrNoHistory)

	expected := sampleObservations(testStart)
	for _, obs := range expected {
		require.NoError(t, store.Append(ctx, "sample_product_1", obs))
	}

	contents, err := os.ReadFile(store.Path("sample_product_1"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(contents), "\n"), "\n")
	require.Len(t, lines, len(expected)+1)
	require.Equal(t, "timestamp,seller,price,title,url", lines[0])
	require.Equal(t, `2024-03-01T09:30:15.123456,retailer_a,"R$ 1.234,56",Sample Product Title,https://example.com/product/1`, lines[1])
	require.Equal(t, 1, strings.Count(string(contents), "timestamp,seller"))

	got, err := store.Load(ctx, "sample_product_1")
	require.NoError(t, err)
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("unexpected observations (-want +got):\n%s", diff)
	}
}

func TestCSVStoreNeverRewrites(t *testing.T) {
	ctx := context.Background()
	store := NewCSVStore(t.TempDir())
	observations := sampleObservations(testStart)

	require.NoError(t, store.Append(ctx, "p", observations[0]))
	before, err := os.ReadFile(store.Path("p"))
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, "p", observations[1]))
	after, err := os.ReadFile(store.Path("p"))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(string(after), string(before)))
}

func TestCSVStoreHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVStore(dir)
	require.NoError(t, os.WriteFile(store.Path("p"), []byte("timestamp,seller,price,title,url\n"), 0644))

	got, err := store.Load(context.Background(), "p")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCSVStoreEmptyFileGetsHeader(t *testing.T) {
	ctx := context.Background()
	store := NewCSVStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.Path("p"), nil, 0644))

	got, err := store.Load(ctx, "p")
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, store.Append(ctx, "p", sampleObservations(testStart)[0]))
	contents, err := os.ReadFile(store.Path("p"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(contents), "timestamp,seller,price,title,url\n"))
}

func TestCSVStoreReadsOtherColumnOrders(t *testing.T) {
	store := NewCSVStore(t.TempDir())
	contents := "seller,timestamp,url,price,title\n" +
		"retailer_a,2024-03-01T09:30:15,https://example.com/product/1,\"R$ 1.234,56\",Sample\n"
	require.NoError(t, os.WriteFile(store.Path("p"), []byte(contents), 0644))

	got, err := store.Load(context.Background(), "p")
	require.NoError(t, err)
	expected := []Observation{{
		Timestamp: time.Date(2024, 3, 1, 9, 30, 15, 0, time.Local),
		Seller:    "retailer_a",
		Price:     "R$ 1.234,56",
		Title:     "Sample",
		URL:       "https://example.com/product/1",
	}}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("unexpected observations (-want +got):\n%s", diff)
	}
}

func TestCSVStoreRejectsBadData(t *testing.T) {
	store := NewCSVStore(t.TempDir())

	require.NoError(t, os.WriteFile(store.Path("missing_column"), []byte("timestamp,seller,price\n"), 0644))
	_, err := store.Load(context.Background(), "missing_column")
	require.ErrorContains(t, err, `missing column "title"`)

	bad := "timestamp,seller,price,title,url\nyesterday,a,1,t,u\n"
	require.NoError(t, os.WriteFile(store.Path("bad_timestamp"), []byte(bad), 0644))
	_, err = store.Load(context.Background(), "bad_timestamp")
	require.ErrorContains(t, err, "line 2")
}

func TestCSVStoreRejectsPathLikeIDs(t *testing.T) {
	store := NewCSVStore(t.TempDir())
	for _, id := range []string{"", "..", "a/b", `a\b`} {
		require.Error(t, store.Append(context.Background(), id, Observation{}), "id %q", id)
	}
}

func TestParseTimestamp(t *testing.T) {
	testCases := []struct {
		in       string
		expected time.Time
	}{
		{in: "2024-03-01T09:30:15.123456", expected: time.Date(2024, 3, 1, 9, 30, 15, 123456000, time.Local)},
		{in: "2024-03-01T09:30:15", expected: time.Date(2024, 3, 1, 9, 30, 15, 0, time.Local)},
		{in: "2024-03-01 09:30:15.5", expected: time.Date(2024, 3, 1, 9, 30, 15, 500000000, time.Local)},
		{in: "2024-03-01T09:30:15Z", expected: time.Date(2024, 3, 1, 9, 30, 15, 0, time.UTC)},
	}
	for _, test := range testCases {
		got, err := ParseTimestamp(test.in)
		require.NoError(t, err, test.in)
		require.True(t, test.expected.Equal(got), "%s: expected %s, got %s", test.in, test.expected, got)
	}

	_, err := ParseTimestamp("not a time")
	require.Error(t, err)
}
