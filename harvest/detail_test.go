package harvest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/placeharvest/models"
	"github.com/use-agent/placeharvest/page"
)

const placeHTML = `<html><body>
<h1 class="DUwDvf">Blue Door Cafe</h1>
<div class="F7nice">
  <span aria-hidden="true">4.6</span>
  <span aria-label="1,024 reviews">(1,024)</span>
</div>
<button jsaction="pane.rating.category">Coffee shop</button>
<button data-item-id="address"><div class="fontBodyMedium">12 Main St, Springfield</div></button>
<a data-item-id="authority" href="https://bluedoor.example/">bluedoor.example</a>
<button data-item-id="phone:tel:+15550100">+1 555-0100</button>
<div class="LTs0Rc"><div class="fontBodyMedium">Dine-in</div><div class="fontBodyMedium">Takeout</div></div>
</body></html>`

func newExtractor() *DetailExtractor {
	return &DetailExtractor{
		Fields:            DefaultFields(),
		NavigationTimeout: time.Second,
		Sleep:             (&sleepRecorder{}).Sleep,
	}
}

func TestExtract_StaticPlacePage(t *testing.T) {
	const u = "https://www.google.com/maps/place/Blue+Door"
	h := page.NewStaticHandle(page.MapFetcher{u: placeHTML})

	got := newExtractor().Extract(context.Background(), h, u)

	want := models.PlaceRecord{
		URL:         u,
		Name:        "Blue Door Cafe",
		Rating:      "4.6",
		ReviewCount: "1,024 reviews",
		Category:    "Coffee shop",
		Address:     "12 Main St, Springfield",
		Website:     "https://bluedoor.example/",
		Phone:       "+1 555-0100",
		Attributes:  "Dine-in | Takeout",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_MissingFieldsAreEmpty(t *testing.T) {
	h := newFakeHandle(map[string]fakePage{"u": {"h1.DUwDvf": {{text: "Only Name"}}}})

	got := newExtractor().Extract(context.Background(), h, "u")

	assert.False(t, got.Failed())
	assert.Equal(t, "Only Name", got.Name)
	m := got.Map()
	assert.Len(t, m, 14)
	for k, v := range m {
		if k != models.KeyName && k != models.KeyURL {
			assert.Empty(t, v, k)
		}
	}
}

func TestExtract_NavigationFailureIsErrorRecord(t *testing.T) {
	h := newFakeHandle(nil)
	h.navErr["u"] = errBoom

	got := newExtractor().Extract(context.Background(), h, "u")

	assert.Equal(t, models.PlaceRecord{URL: "u", Error: "boom"}, got)
}

func TestExtract_QueryFailureLosesWholeRecord(t *testing.T) {
	h := newFakeHandle(map[string]fakePage{"u": {"h1.DUwDvf": {{text: "Name"}}}})
	h.queryErr[`button[jsaction*="category"]`] = errBoom

	got := newExtractor().Extract(context.Background(), h, "u")

	assert.Equal(t, models.PlaceRecord{URL: "u", Error: "boom"}, got)
}

func TestExtract_PanicIsRecovered(t *testing.T) {
	h := newFakeHandle(map[string]fakePage{"u": {}})
	h.panicOn = `h1.DUwDvf`

	var got models.PlaceRecord
	require.NotPanics(t, func() { got = newExtractor().Extract(context.Background(), h, "u") })

	assert.True(t, got.Failed())
	assert.Equal(t, "u", got.URL)
	assert.Contains(t, got.Error, "panic")
}

func TestExtract_WaitsForSettle(t *testing.T) {
	h := newFakeHandle(map[string]fakePage{"u": {}})
	sleeps := &sleepRecorder{}
	d := newExtractor()
	d.Settle = 3 * time.Second
	d.Sleep = sleeps.Sleep

	d.Extract(context.Background(), h, "u")

	assert.Equal(t, []time.Duration{3 * time.Second}, sleeps.pauses)
	assert.Equal(t, []string{"u"}, h.navigations)
}
