package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pharmatrace/internal/audit"
	"pharmatrace/internal/batchreg"
	"pharmatrace/internal/coldchain"
	"pharmatrace/internal/compliance"
	"pharmatrace/internal/custody"
	"pharmatrace/internal/platform/middleware"
	"pharmatrace/internal/prescription"
	"pharmatrace/internal/quality"
	"pharmatrace/internal/recall"
	"pharmatrace/internal/trace"
)

// Handler is the thin HTTP layer. It delegates to domain services without
// embedding business logic so transport concerns remain isolated.
type Handler struct {
	logger        *slog.Logger
	batches       *batchreg.Service
	custody       *custody.Service
	prescriptions *prescription.Service
	quality       *quality.Service
	compliance    *compliance.Service
	recalls       *recall.Service
	coldchain     *coldchain.Service
	audits        *audit.Service
	status        *trace.Service
}

func NewHandler(
	logger *slog.Logger,
	batches *batchreg.Service,
	cust *custody.Service,
	prescriptions *prescription.Service,
	qual *quality.Service,
	comp *compliance.Service,
	recalls *recall.Service,
	cold *coldchain.Service,
	audits *audit.Service,
	status *trace.Service,
) *Handler {
	return &Handler{
		logger:        logger,
		batches:       batches,
		custody:       cust,
		prescriptions: prescriptions,
		quality:       qual,
		compliance:    comp,
		recalls:       recalls,
		coldchain:     cold,
		audits:        audits,
		status:        status,
	}
}

// NewRouter wires all public endpoints. Every domain route sits behind bearer
// auth; /healthz and /metrics stay open for the platform.
func NewRouter(h *Handler, verifier middleware.TokenVerifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(h.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(verifier, h.logger))

		r.Post("/batches", h.handleMintBatch)
		r.Get("/batches/{batchID}", h.handleGetBatch)
		r.Get("/batches/{batchID}/status", h.handleBatchStatus)

		r.Post("/batches/{batchID}/transfers", h.handleInitiateTransfer)
		r.Post("/batches/{batchID}/transfers/confirm", h.handleConfirmReceipt)
		r.Get("/batches/{batchID}/custody", h.handleCustodyChain)

		r.Post("/prescriptions", h.handleIssuePrescription)
		r.Post("/prescriptions/{prescriptionID}/fill", h.handleFillPrescription)
		r.Get("/prescriptions/{prescriptionID}", h.handleGetPrescription)

		r.Post("/quality/inspectors", h.handleAuthorizeInspector)
		r.Delete("/quality/inspectors/{actor}", h.handleRevokeInspector)
		r.Post("/batches/{batchID}/quality-checks", h.handlePerformCheck)
		r.Get("/batches/{batchID}/quality-checks", h.handleListChecks)

		r.Post("/compliance/bodies", h.handleRecognizeBody)
		r.Post("/batches/{batchID}/approvals", h.handleGrantApproval)
		r.Post("/batches/{batchID}/approvals/{index}/revoke", h.handleRevokeApproval)
		r.Get("/batches/{batchID}/approvals", h.handleListApprovals)

		r.Post("/batches/{batchID}/recalls", h.handleIssueRecall)
		r.Post("/batches/{batchID}/recalls/{index}/resolve", h.handleResolveRecall)
		r.Get("/batches/{batchID}/recalls", h.handleListRecalls)

		r.Post("/coldchain/sensors", h.handleAuthorizeSensor)
		r.Delete("/coldchain/sensors/{actor}", h.handleRevokeSensor)
		r.Put("/batches/{batchID}/threshold", h.handleSetThreshold)
		r.Post("/batches/{batchID}/readings", h.handleRecordTemperature)
		r.Get("/batches/{batchID}/readings", h.handleListReadings)

		r.Get("/batches/{batchID}/audit", h.handleBatchAuditTrail)
		r.Post("/audit/verify", h.handleVerifyAuditHash)
		r.Get("/audit/count", h.handleAuditCount)
	})
	return r
}
