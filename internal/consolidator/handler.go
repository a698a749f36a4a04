package consolidator

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/liwesley02/otter-consolidator/pkg/event"
)

const MaxBodyBytes = 1 << 20

// Handler exposes the consolidator over HTTP: snapshot ingest for
// pull-style scrapers, projections for renderers, label payloads for the
// printer, and settings.
type Handler struct {
	logger       apt.Logger
	config       *apt.Config
	tlm          *telemetry.HTTP
	engine       *Engine
	labels       *LabelBuilder
	settingsRepo SettingsRepository
	archiveRepo  BatchArchiveRepository
}

type HandlerDeps struct {
	Engine       *Engine
	Labels       *LabelBuilder
	SettingsRepo SettingsRepository
	ArchiveRepo  BatchArchiveRepository
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	labels := hd.Labels
	if labels == nil && hd.Engine != nil {
		labels = NewLabelBuilder(hd.Engine.Matcher())
	}
	return &Handler{
		logger:       logger,
		config:       config,
		tlm:          telemetry.NewHTTP(),
		engine:       hd.Engine,
		labels:       labels,
		settingsRepo: hd.SettingsRepo,
		archiveRepo:  hd.ArchiveRepo,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/snapshots", h.IngestSnapshot)

	r.Route("/batches", func(r chi.Router) {
		r.Get("/", h.ListBatches)
		r.Get("/stats", h.GetStats)
		r.Get("/archive", h.ListArchive)
		r.Post("/", h.CreateBatch)
		r.Get("/{index}", h.GetBatch)
		r.Get("/{index}/by-category", h.GetBatchByCategory)
		r.Get("/{index}/by-size", h.GetBatchBySize)
		r.Get("/{index}/labels", h.GetBatchLabels)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/{id}/complete", h.CompleteOrder)
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.GetSettings)
		r.Put("/", h.UpdateSettings)
	})
}

// IngestSnapshot accepts a full order snapshot from a scraper that pushes
// over HTTP instead of NATS. The payload is the same OrderSnapshotEvent
// shape the subscriber consumes.
func (h *Handler) IngestSnapshot(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.IngestSnapshot")
	defer finish()

	log := h.log(r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		log.Debug("cannot read snapshot body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Cannot read request body")
		return
	}

	var snapshot event.OrderSnapshotEvent
	if err := json.Unmarshal(body, &snapshot); err != nil {
		log.Debug("invalid snapshot payload", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid snapshot payload")
		return
	}

	orders := make([]*Order, 0, len(snapshot.Orders))
	for _, rec := range snapshot.Orders {
		orders = append(orders, OrderFromFeed(rec, h.engine.Matcher(), h.engine.Classifier()))
	}

	h.engine.AssignOrders(orders)
	log.Info("snapshot ingested", "orders", len(orders), "source", snapshot.Source)

	apt.RespondSuccess(w, h.engine.Stats())
}

func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListBatches")
	defer finish()

	apt.RespondCollection(w, h.engine.BatchSummaries(), "batch")
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetStats")
	defer finish()

	apt.RespondSuccess(w, h.engine.Stats())
}

func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateBatch")
	defer finish()

	batch := h.engine.CreateNewBatch()
	h.log(r).Info("batch created manually", "number", batch.Number)

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, h.engine.BatchSummaryAt(h.engine.BatchCount()-1))
}

func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetBatch")
	defer finish()

	index, ok := h.parseIndexParam(w, r)
	if !ok {
		return
	}
	if h.engine.BatchAt(index) == nil {
		apt.RespondError(w, http.StatusNotFound, "Batch not found")
		return
	}
	apt.RespondSuccess(w, h.engine.BatchSummaryAt(index))
}

func (h *Handler) GetBatchByCategory(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetBatchByCategory")
	defer finish()

	index, ok := h.parseIndexParam(w, r)
	if !ok {
		return
	}
	apt.RespondSuccess(w, h.engine.BatchByCategory(index))
}

func (h *Handler) GetBatchBySize(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetBatchBySize")
	defer finish()

	index, ok := h.parseIndexParam(w, r)
	if !ok {
		return
	}
	apt.RespondSuccess(w, h.engine.BatchBySizeGroups(index))
}

func (h *Handler) GetBatchLabels(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetBatchLabels")
	defer finish()

	index, ok := h.parseIndexParam(w, r)
	if !ok {
		return
	}
	apt.RespondSuccess(w, h.engine.BatchLabels(index, h.labels))
}

// CompleteOrder handles an explicit out-of-band completion signal, e.g. a
// staff action in the overlay rather than disappearance from the feed.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CompleteOrder")
	defer finish()

	log := h.log(r)
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		apt.RespondError(w, http.StatusBadRequest, "Order id is required")
		return
	}

	if !h.engine.MarkOrderCompleted(orderID) {
		log.Debug("completion for unknown order", "order_id", orderID)
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	apt.RespondSuccess(w, map[string]string{"order_id": orderID, "status": "completed"})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetSettings")
	defer finish()

	apt.RespondSuccess(w, Settings{MaxBatchCapacity: h.engine.Capacity()})
}

// UpdateSettings changes the batch capacity. The change only applies to
// batches created afterward; existing batches keep their capacity.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateSettings")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Cannot read request body")
		return
	}

	var settings Settings
	if err := json.Unmarshal(body, &settings); err != nil {
		log.Debug("invalid settings payload", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid settings payload")
		return
	}

	capacity := settings.EffectiveCapacity()
	h.engine.SetCapacity(capacity)

	if h.settingsRepo != nil {
		settings.MaxBatchCapacity = capacity
		settings.UpdatedAt = time.Now()
		if err := h.settingsRepo.Save(ctx, &settings); err != nil {
			// Persistence is best effort; the in-memory value already took.
			log.Error("cannot persist settings", "error", err)
		}
	}

	apt.RespondSuccess(w, Settings{MaxBatchCapacity: capacity})
}

func (h *Handler) ListArchive(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListArchive")
	defer finish()

	log := h.log(r)

	if h.archiveRepo == nil {
		apt.RespondCollection(w, []BatchArchive{}, "batch-archive")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	archives, err := h.archiveRepo.List(r.Context(), limit)
	if err != nil {
		log.Error("cannot list batch archive", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve batch archive")
		return
	}
	apt.RespondCollection(w, archives, "batch-archive")
}

func (h *Handler) parseIndexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		h.log(r).Debug("invalid batch index", "index", raw)
		apt.RespondError(w, http.StatusBadRequest, "Invalid batch index")
		return 0, false
	}
	return index, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
