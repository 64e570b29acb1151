package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/goccy/go-json"

	"github.com/mbolis/field-survey/app"
	"github.com/mbolis/field-survey/httpx"
	"github.com/mbolis/field-survey/log"
	"github.com/mbolis/field-survey/model"
)

// Received is a row of the received survey listing.
type Received struct {
	UUID          string    `json:"uuid"`
	FormID        int       `json:"form_id"`
	BeneficiaryID *int64    `json:"beneficiary_id,omitempty"`
	Position      string    `json:"position,omitempty"`
	ReceivedAt    time.Time `json:"received_at"`
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// ReceiveSurvey stores a posted survey once per uuid. Posting the same uuid
// again succeeds without changing what was stored first.
func ReceiveSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err = app.Validate.Struct(&form)
		if err != nil {
			httpx.LogInvalid(w, "request.validate", err)
			return
		}
		if missing := form.MissingAnswers(); len(missing) > 0 {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel, "request.validate",
				"missing required answers: %s", strings.Join(missing, ", "))
			return
		}

		body, err := json.Marshal(&form)
		if err != nil {
			httpx.LogInternalError(w, "receive_survey.encode", err)
			return
		}

		var beneficiaryId *int
		if form.Beneficiary != nil {
			beneficiaryId = &form.Beneficiary.ID
		}

		res, err := app.ExecContext(r.Context(), `
			INSERT INTO received_survey (uuid, form_id, beneficiary_id, position, body, received_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (uuid) DO NOTHING`,
			form.UUID,
			form.ID,
			beneficiaryId,
			form.Position,
			string(body),
			time.Now().UTC(),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_received_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_received_survey.verify", err)
			return
		}
		if n < 1 {
			log.Debugf("receive_survey: %s already received", form.UUID)
		}

		render.JSON(w, r, map[string]any{
			"uuid":      form.UUID,
			"duplicate": n < 1,
		})
	}
}

func ListReceived(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT uuid, form_id, beneficiary_id, position, received_at
			FROM received_survey
			ORDER BY received_at, uuid`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_received", err)
			return
		}
		defer rows.Close()

		surveys := []Received{}
		for rows.Next() {
			s := Received{}
			var beneficiaryId sql.NullInt64
			var position sql.NullString
			err = rows.Scan(&s.UUID, &s.FormID, &beneficiaryId, &position, &s.ReceivedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_received.scan", err)
				return
			}
			if beneficiaryId.Valid {
				s.BeneficiaryID = &beneficiaryId.Int64
			}
			s.Position = position.String

			surveys = append(surveys, s)
		}
		if err = rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.get_received.rows", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetReceived(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uuid := chi.URLParam(r, "uuid")

		var body string
		err := app.QueryRowContext(r.Context(), `
			SELECT body FROM received_survey
			WHERE uuid = ?`,
			uuid,
		).Scan(&body)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httpx.LogNotFound(w, "get_received", uuid)
			} else {
				httpx.LogInternalError(w, "db.get_received", err)
			}
			return
		}

		w.Header().Set("content-type", "application/json")
		w.Write([]byte(body))
	}
}
