package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/julienschmidt/httprouter"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/entity"
)

// MatchStore keeps the last snapshot the session published. It is a session display.
type MatchStore struct {
	last atomic.Pointer[entity.Snapshot]
}

func NewMatchStore() *MatchStore {
	return &MatchStore{}
}

func (that *MatchStore) Render(snapshot entity.Snapshot) {
	that.last.Store(&snapshot)
}

// Last - the latest snapshot, ok is false before the first one.
func (that *MatchStore) Last() (entity.Snapshot, bool) {
	snapshot := that.last.Load()
	if snapshot == nil {
		return entity.Snapshot{}, false
	}
	return *snapshot, true
}

func matchHandler(logger *slog.Logger, store *MatchStore) httprouter.Handle {
	log := logger.With("method", "matchHandler")

	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		snapshot, ok := store.Last()
		if !ok {
			http.Error(w, "no match yet", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			log.Error("failed to encode match", "error", err)
		}
	}
}
