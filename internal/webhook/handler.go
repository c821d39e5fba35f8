package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	gh "github.com/google/go-github/v66/github"

	"github.com/cexll/kanban-mcp/internal/concurrency"
	"github.com/cexll/kanban-mcp/internal/logging"
	"github.com/cexll/kanban-mcp/internal/pragent"
)

const maxPayloadBytes = 25 << 20

// PRProcessor handles newly opened pull requests.
type PRProcessor interface {
	ProcessNewPR(ctx context.Context, ev pragent.PullRequestEvent) error
}

// Handler handles GitHub webhook deliveries.
type Handler struct {
	webhookSecret string
	processor     PRProcessor
	deliveries    *deliveryDeduper
	inFlight      *concurrency.Manager
	logger        *logging.Logger
}

// NewHandler creates a new webhook handler. An empty secret disables signature
// verification; a nil processor acknowledges events without acting on them.
func NewHandler(webhookSecret string, processor PRProcessor, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handler{
		webhookSecret: webhookSecret,
		processor:     processor,
		deliveries:    newDeliveryDeduper(12 * time.Hour),
		inFlight:      concurrency.NewManager(),
		logger:        logger.Component("webhook"),
	}
}

// Handle handles POST /webhook/github.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		h.logger.Warn("Error reading payload", "error", err)
		http.Error(w, "Error reading payload", http.StatusBadRequest)
		return
	}

	if h.webhookSecret != "" {
		if err := VerifySignature(payload, r.Header.Get("X-Hub-Signature-256"), h.webhookSecret); err != nil {
			h.logger.Warn("Signature verification failed", "error", err)
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	if id := r.Header.Get("X-GitHub-Delivery"); id != "" && !h.deliveries.markIfNew(id) {
		h.logger.Info("Ignoring duplicate delivery", "delivery", id)
		writeStatus(w, "duplicate")
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "" {
		eventType = sniffEventType(payload)
	}

	event, err := gh.ParseWebHook(eventType, payload)
	if err != nil {
		h.logger.Debug("Ignoring unsupported event", "event", eventType, "error", err)
		writeStatus(w, "processed")
		return
	}

	if pr, ok := event.(*gh.PullRequestEvent); ok && pr.GetAction() == "opened" && pr.PullRequest != nil {
		// GitHub drops the delivery after ~10s; the PR update must not be
		// cancelled with it.
		h.handlePullRequestOpened(context.WithoutCancel(r.Context()), pr)
	}
	writeStatus(w, "processed")
}

// handlePullRequestOpened runs synchronously; failures are logged and the
// delivery is still acknowledged.
func (h *Handler) handlePullRequestOpened(ctx context.Context, event *gh.PullRequestEvent) {
	pr := event.GetPullRequest()
	ev := pragent.PullRequestEvent{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		RepoFullName: pr.GetBase().GetRepo().GetFullName(),
		RepoHTMLURL:  pr.GetBase().GetRepo().GetHTMLURL(),
		HeadRef:      pr.GetHead().GetRef(),
		BaseRef:      pr.GetBase().GetRef(),
	}
	if ev.RepoFullName == "" {
		ev.RepoFullName = event.GetRepo().GetFullName()
		ev.RepoHTMLURL = event.GetRepo().GetHTMLURL()
	}
	log := h.logger.With("repo", ev.RepoFullName, "pr", ev.Number)

	if h.processor == nil {
		log.Info("PR agent unavailable, skipping new PR")
		return
	}

	var err error
	if !h.inFlight.Do(concurrency.PRKey(ev.RepoFullName, ev.Number), func() {
		err = h.processor.ProcessNewPR(ctx, ev)
	}) {
		log.Info("PR is already being processed, skipping")
		return
	}
	if err != nil {
		log.Error("Error processing new PR", "error", err)
		return
	}
	log.Info("Processed new PR")
}

// sniffEventType covers deliveries without an X-GitHub-Event header.
func sniffEventType(payload []byte) string {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ""
	}
	if _, ok := probe["pull_request"]; ok {
		return "pull_request"
	}
	return ""
}

func writeStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
