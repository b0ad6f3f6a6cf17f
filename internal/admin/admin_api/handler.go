package admin_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"time"

	"controle-acesso/internal/access/db"
	"controle-acesso/internal/auth"
	"controle-acesso/internal/cpf"
	"controle-acesso/internal/logger"
	"controle-acesso/internal/models"
	"controle-acesso/internal/qr"
	"controle-acesso/internal/sse"
	"controle-acesso/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Store interface {
	CreateEvent(ctx context.Context, event models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	AddVip(ctx context.Context, vip models.VipEntry) error
	LoadVipList(ctx context.Context, eventID string) ([]models.VipEntry, error)
	GetVip(ctx context.Context, eventID, id string) (*models.VipEntry, error)
	UpdateVip(ctx context.Context, vip models.VipEntry) error
	DeleteVip(ctx context.Context, eventID, id string) error

	CreateTickets(ctx context.Context, tickets []models.TicketCode) error
	ListTickets(ctx context.Context, eventID string) ([]models.TicketCode, error)
	GetTicket(ctx context.Context, eventID, id string) (*models.TicketCode, error)
	DeleteTicket(ctx context.Context, eventID, id string) error
	ExistingTicketCodes(ctx context.Context, codes []string) ([]string, error)

	ListAttempts(ctx context.Context, filter db.AttemptFilter) ([]models.AccessAttempt, error)
	ClearAttempts(ctx context.Context) (int64, error)
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	Store    Store
	Auth     *auth.Service
	Emitter  *sse.AttemptEmitter
	QR       *qr.Generator
	Cookie   CookieConfig
	Logger   *logger.Logger
	Location *time.Location // zone for form times without an offset

	Now      func() time.Time
	NewID    func() string
	validate *validator.Validate
}

func NewHandler(store Store, authSvc *auth.Service, emitter *sse.AttemptEmitter, cookie CookieConfig, log *logger.Logger) *Handler {
	return &Handler{
		Store:    store,
		Auth:     authSvc,
		Emitter:  emitter,
		QR:       qr.NewGenerator(qr.DefaultSize),
		Cookie:   cookie,
		Logger:   log,
		Location: time.UTC,
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    uuid.NewString,
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return cpf.Validate(fl.Field().String())
	})
	return v
}

// RegisterRoutes mounts the admin API. Any extra route registrars are
// mounted behind the same session check.
func (h *Handler) RegisterRoutes(r chi.Router, protected ...func(chi.Router)) {
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.Auth, h.Cookie.Name))

			r.Get("/report", h.Report)
			r.Get("/report.csv", h.ExportCSV)
			r.Post("/report/clear", h.ClearReport)

			for _, register := range protected {
				register(r)
			}

			r.Route("/events", func(r chi.Router) {
				r.Get("/", h.ListEvents)
				r.Post("/", h.CreateEvent)

				r.Route("/{eventID}", func(r chi.Router) {
					r.Get("/", h.GetEvent)
					r.Delete("/", h.DeleteEvent)
					r.Get("/report", h.EventReport)
					r.Get("/live", h.LiveAttempts)

					r.Get("/vips", h.ListVips)
					r.Post("/vips", h.AddVip)
					r.Put("/vips/{vipID}", h.UpdateVip)
					r.Delete("/vips/{vipID}", h.DeleteVip)

					r.Get("/tickets", h.ListTickets)
					r.Post("/tickets", h.CreateTickets)
					r.Delete("/tickets/{ticketID}", h.DeleteTicket)
					r.Get("/tickets/{ticketID}/qr", h.TicketQR)
				})
			})
		})
	})
}

// decodeBody reads JSON, or a form post into the json-tagged string fields
// of dst when the client sent a form.
func decodeBody(r *http.Request, dst interface{}) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" || mediaType == "" {
		return json.NewDecoder(r.Body).Decode(dst)
	}

	if err := r.ParseForm(); err != nil {
		return err
	}
	values := map[string]string{}
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func (h *Handler) validationFailed(w http.ResponseWriter, err error) {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = fmt.Sprintf("failed %s", fe.Tag())
		}
	}
	utils.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
		"success": false,
		"message": "Validation failed",
		"fields":  fields,
	})
}

// storeError maps a store failure to a response, logging anything unexpected.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error, what string) {
	if errors.Is(err, db.ErrNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(what+" not found", err.Error()))
		return
	}
	h.Logger.Error("ADMIN", fmt.Sprintf("%s %s failed: %v", r.Method, r.URL.Path, err))
	utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal error", "could not complete the request"))
}

// requireEvent loads the {eventID} path event, writing the error response
// itself when it cannot.
func (h *Handler) requireEvent(w http.ResponseWriter, r *http.Request) (*models.Event, bool) {
	event, err := h.Store.GetEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.storeError(w, r, err, "Event")
		return nil, false
	}
	return event, true
}
