package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pylon/internal/adapters/http/api"
	"github.com/okian/pylon/internal/adapters/repository"
	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/internal/domain/types"
)

// Mock implementation of api.Dependencies for handler tests.
type mockDeps struct {
	seen         map[string]bool
	enqueueOK    bool
	enqueued     []model.Game
	topN         []types.Entry
	topNErr      error
	rank         types.Entry
	rankErr      error
	history      []types.HistoryPoint
	historyErr   error
	prediction   model.Prediction
	predictErr   error
	byGame       map[string]model.Prediction
	activateErr  error
	forceWeekErr error
	currentWeek  int
	weekKnown    bool
}

func newMockDeps() *mockDeps {
	return &mockDeps{
		seen:      make(map[string]bool),
		enqueueOK: true,
		byGame:    make(map[string]model.Prediction),
		weekKnown: true,
	}
}

func (m *mockDeps) SeenAndRecord(_ context.Context, id string) bool {
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDeps) Unrecord(_ context.Context, id string) { delete(m.seen, id) }
func (m *mockDeps) Size() int64                           { return int64(len(m.seen)) }

func (m *mockDeps) EnqueueGame(_ context.Context, g model.Game) bool {
	if !m.enqueueOK {
		return false
	}
	m.enqueued = append(m.enqueued, g)
	return true
}

func (m *mockDeps) TopN(_ context.Context, n, _ int) ([]types.Entry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDeps) Rank(_ context.Context, _ string, _ int) (types.Entry, error) {
	if m.rankErr != nil {
		return types.Entry{}, m.rankErr
	}
	return m.rank, nil
}

func (m *mockDeps) History(_ context.Context, _ string, _ int) ([]types.HistoryPoint, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history, nil
}

func (m *mockDeps) Predict(_ context.Context, _ *model.Game) (model.Prediction, error) {
	if m.predictErr != nil {
		return model.Prediction{}, m.predictErr
	}
	return m.prediction, nil
}

func (m *mockDeps) PredictAsOf(_ context.Context, _ *model.Game) (model.Prediction, error) {
	if m.predictErr != nil {
		return model.Prediction{}, m.predictErr
	}
	p := m.prediction
	p.Retrospective = true
	return p, nil
}

func (m *mockDeps) PredictionByGame(_ context.Context, gameID string) (model.Prediction, error) {
	p, ok := m.byGame[gameID]
	if !ok {
		return model.Prediction{}, repository.ErrPredictionNotFound
	}
	return p, nil
}

func (m *mockDeps) ActivateSeason(_ context.Context, _ int, _ []model.Team) error {
	return m.activateErr
}

func (m *mockDeps) ArchiveSeason(_ context.Context, _ int) error { return nil }

func (m *mockDeps) ForceCurrentWeek(_ context.Context, _, _ int) error {
	return m.forceWeekErr
}

func (m *mockDeps) CurrentWeek(_ context.Context, _ int) (int, bool) {
	return m.currentWeek, m.weekKnown
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"queue_size": 0}
}

func newTestMux(deps *mockDeps) *http.ServeMux {
	server := api.NewServer(deps, mockStats{}, 100)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

const validGameBody = `{
	"game_id": "g-2025-w3-lsu-bama",
	"season": 2025,
	"week": 3,
	"home_team_id": "lsu",
	"away_team_id": "bama",
	"home_score": 31,
	"away_score": 24
}`

func TestPostGame(t *testing.T) {
	Convey("Given the games endpoint", t, func() {
		deps := newMockDeps()
		mux := newTestMux(deps)

		Convey("When posting a valid completed game", func() {
			req := httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(validGameBody))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it is accepted and enqueued", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(deps.enqueued, ShouldHaveLength, 1)
				So(deps.enqueued[0].ID, ShouldEqual, "g-2025-w3-lsu-bama")
				So(deps.enqueued[0].HomeScore, ShouldEqual, 31)
			})
		})

		Convey("When posting the same game twice", func() {
			for i := 0; i < 2; i++ {
				req := httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(validGameBody))
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				if i == 1 {
					Convey("Then the second submission is reported as a duplicate", func() {
						So(rec.Code, ShouldEqual, http.StatusOK)

						var ack map[string]any
						So(json.Unmarshal(rec.Body.Bytes(), &ack), ShouldBeNil)
						So(ack["duplicate"], ShouldBeTrue)
						So(deps.enqueued, ShouldHaveLength, 1)
					})
				}
			}
		})

		Convey("When the queue reports backpressure", func() {
			deps.enqueueOK = false
			req := httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(validGameBody))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then a 429 is returned and the ID is unrecorded for retry", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(deps.seen, ShouldBeEmpty)
			})
		})

		Convey("When the payload is invalid", func() {
			cases := map[string]string{
				"missing game_id": `{"season":2025,"week":3,"home_team_id":"a","away_team_id":"b"}`,
				"same teams":      `{"game_id":"g1","season":2025,"week":3,"home_team_id":"a","away_team_id":"a"}`,
				"week too high":   `{"game_id":"g1","season":2025,"week":20,"home_team_id":"a","away_team_id":"b"}`,
				"negative score":  `{"game_id":"g1","season":2025,"week":3,"home_team_id":"a","away_team_id":"b","home_score":-1}`,
				"not json":        `{{{`,
			}
			for name, body := range cases {
				req := httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(body))
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)

				Convey("Then "+name+" is rejected with 400", func() {
					So(rec.Code, ShouldEqual, http.StatusBadRequest)
					So(deps.enqueued, ShouldBeEmpty)
				})
			}
		})

		Convey("When posting with quarter scores", func() {
			body := `{
				"game_id": "g2",
				"season": 2025,
				"week": 3,
				"home_team_id": "lsu",
				"away_team_id": "bama",
				"home_score": 28,
				"away_score": 14,
				"quarters": {"home": [7,7,7,7], "away": [0,7,0,7]}
			}`
			req := httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the quarter line survives the wire", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(deps.enqueued[0].Quarters, ShouldNotBeNil)
				So(deps.enqueued[0].Quarters.Home, ShouldResemble, [4]int{7, 7, 7, 7})
			})
		})
	})
}

func TestGetRankings(t *testing.T) {
	Convey("Given the rankings endpoint", t, func() {
		deps := newMockDeps()
		deps.topN = []types.Entry{
			{Rank: 1, TeamID: "georgia", Rating: 1980, Wins: 9},
			{Rank: 2, TeamID: "oregon", Rating: 1933, Wins: 8, Losses: 1},
		}
		mux := newTestMux(deps)

		Convey("When requesting the top teams", func() {
			req := httptest.NewRequest(http.MethodGet, "/rankings?limit=2&season=2025", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the rows come back in rank order", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var entries []types.Entry
				So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].TeamID, ShouldEqual, "georgia")
			})
		})

		Convey("When the limit is missing or invalid", func() {
			for _, q := range []string{"", "?limit=0&season=2025", "?limit=abc&season=2025", "?limit=101&season=2025"} {
				req := httptest.NewRequest(http.MethodGet, "/rankings"+q, nil)
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the season is missing", func() {
			req := httptest.NewRequest(http.MethodGet, "/rankings?limit=5", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestGetRank(t *testing.T) {
	Convey("Given the rank endpoint", t, func() {
		deps := newMockDeps()
		deps.rank = types.Entry{Rank: 4, TeamID: "lsu", Rating: 1874, Wins: 7, Losses: 2}
		mux := newTestMux(deps)

		Convey("When requesting a ranked team", func() {
			req := httptest.NewRequest(http.MethodGet, "/rank/lsu?season=2025", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the rankings row is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var entry types.Entry
				So(json.Unmarshal(rec.Body.Bytes(), &entry), ShouldBeNil)
				So(entry.Rank, ShouldEqual, 4)
			})
		})

		Convey("When the team is unknown", func() {
			deps.rankErr = repository.ErrTeamNotFound
			req := httptest.NewRequest(http.MethodGet, "/rank/nobody?season=2025", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the team is not ranking-eligible", func() {
			deps.rankErr = repository.ErrTeamNotRanked
			req := httptest.NewRequest(http.MethodGet, "/rank/mcneese?season=2025", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestPredictions(t *testing.T) {
	Convey("Given the predictions endpoint", t, func() {
		deps := newMockDeps()
		deps.prediction = model.Prediction{
			ID:                 "p1",
			GameID:             "g9",
			HomeWinProbability: 0.634,
			AwayWinProbability: 0.366,
			Confidence:         model.ConfidenceMedium,
		}
		mux := newTestMux(deps)

		body := `{"game_id":"g9","season":2025,"week":8,"home_team_id":"lsu","away_team_id":"bama"}`

		Convey("When creating a live prediction", func() {
			req := httptest.NewRequest(http.MethodPost, "/predictions", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the snapshot is returned with 201", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)

				var pred model.Prediction
				So(json.Unmarshal(rec.Body.Bytes(), &pred), ShouldBeNil)
				So(pred.HomeWinProbability, ShouldAlmostEqual, 0.634, 0.0001)
				So(pred.Retrospective, ShouldBeFalse)
			})
		})

		Convey("When creating a retrospective prediction", func() {
			retro := `{"game_id":"g9","season":2025,"week":8,"home_team_id":"lsu","away_team_id":"bama","retrospective":true}`
			req := httptest.NewRequest(http.MethodPost, "/predictions", strings.NewReader(retro))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the snapshot is flagged retrospective", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)

				var pred model.Prediction
				So(json.Unmarshal(rec.Body.Bytes(), &pred), ShouldBeNil)
				So(pred.Retrospective, ShouldBeTrue)
			})
		})

		Convey("When fetching a stored prediction", func() {
			deps.byGame["g9"] = deps.prediction
			req := httptest.NewRequest(http.MethodGet, "/predictions/g9", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the stored snapshot is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When fetching a prediction that does not exist", func() {
			req := httptest.NewRequest(http.MethodGet, "/predictions/missing", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestGetHistory(t *testing.T) {
	Convey("Given the history endpoint", t, func() {
		deps := newMockDeps()
		deps.history = []types.HistoryPoint{
			{Season: 2025, Week: 1, Rating: 1512, Wins: 1},
			{Season: 2025, Week: 2, Rating: 1540, Wins: 2},
		}
		mux := newTestMux(deps)

		Convey("When requesting a team's trajectory", func() {
			req := httptest.NewRequest(http.MethodGet, "/history/lsu?season=2025", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the weekly points are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var points []types.HistoryPoint
				So(json.Unmarshal(rec.Body.Bytes(), &points), ShouldBeNil)
				So(points, ShouldHaveLength, 2)
				So(points[1].Week, ShouldEqual, 2)
			})
		})

		Convey("When the season parameter is missing", func() {
			req := httptest.NewRequest(http.MethodGet, "/history/lsu", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSeasons(t *testing.T) {
	Convey("Given the seasons endpoints", t, func() {
		deps := newMockDeps()
		deps.currentWeek = 9
		mux := newTestMux(deps)

		Convey("When reading the current week", func() {
			req := httptest.NewRequest(http.MethodGet, "/seasons/2025/week", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the derived week is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["week"], ShouldEqual, 9)
				So(resp["known"], ShouldEqual, true)
			})
		})

		Convey("When forcing the current week", func() {
			req := httptest.NewRequest(http.MethodPut, "/seasons/2025/week", strings.NewReader(`{"week":11}`))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When activating a season with seeds", func() {
			body := `{"teams":[{"team_id":"lsu","name":"LSU","tier":"POWER_5","rating":1745}]}`
			req := httptest.NewRequest(http.MethodPost, "/seasons/2026/activate", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusCreated)
		})

		Convey("When activating without teams", func() {
			req := httptest.NewRequest(http.MethodPost, "/seasons/2026/activate", strings.NewReader(`{"teams":[]}`))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When archiving a season", func() {
			req := httptest.NewRequest(http.MethodPost, "/seasons/2024/archive", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When the path is malformed", func() {
			req := httptest.NewRequest(http.MethodGet, "/seasons/abc/week", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the operational endpoints", t, func() {
		mux := newTestMux(newMockDeps())

		Convey("When probing health", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When reading stats", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
			So(stats, ShouldContainKey, "queue_size")
		})

		Convey("When scraping metrics", func() {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusOK)
		})
	})
}
