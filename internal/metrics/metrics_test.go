package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/JonMunkholm/lanes/internal/core"
)

func scrape(m *Manager) string {
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestManagerRecordsImports(t *testing.T) {
	Convey("Given a metrics manager on its own registry", t, func() {
		m := NewManager(WithRegistry(prometheus.NewRegistry()))

		Convey("When an import finishes", func() {
			m.ImportFinished("lanes", "commit", "committed", 250*time.Millisecond)
			m.RowsProcessed("updated", 3)
			m.RowsProcessed("skipped", 0)
			m.WarningRaised("lane_mismatch")
			m.WarningRaised("lane_mismatch")
			m.AuditWritten(4)

			out := scrape(m)

			Convey("Then every measurement is exposed", func() {
				So(out, ShouldContainSubstring, `lanes_import_runs_total{mode="commit",outcome="committed",profile="lanes"} 1`)
				So(out, ShouldContainSubstring, `lanes_import_duration_seconds_count{mode="commit",profile="lanes"} 1`)
				So(out, ShouldContainSubstring, `lanes_import_rows_total{outcome="updated"} 3`)
				So(out, ShouldNotContainSubstring, `outcome="skipped"`)
				So(out, ShouldContainSubstring, `lanes_import_warnings_total{type="lane_mismatch"} 2`)
				So(out, ShouldContainSubstring, `lanes_import_audit_entries_total 4`)
			})
		})

		Convey("When the limiter is tracked", func() {
			m.TrackActiveImports(func() int { return 2 })

			Convey("Then the gauge reads the current value", func() {
				So(scrape(m), ShouldContainSubstring, `lanes_import_active_commits 2`)
			})
		})
	})
}

func TestManagerOptions(t *testing.T) {
	Convey("Given custom naming options", t, func() {
		m := NewManager(
			WithNamespace("league"),
			WithSubsystem("csv"),
			WithHistogramBuckets([]float64{1, 5}),
		)
		m.AuditWritten(1)

		So(scrape(m), ShouldContainSubstring, "league_csv_audit_entries_total 1")
	})
}

func TestManagerIsAnObserver(t *testing.T) {
	var _ core.Observer = NewManager()
}
