package handlers

import (
	"errors"
	"net/http"

	"github.com/chainplay/fantasy-tournaments/services"
	"github.com/go-chi/chi/v5"
)

type TournamentHandler struct {
	tournamentService *services.TournamentService
	enrollmentService *services.EnrollmentService
}

func NewTournamentHandler(ts *services.TournamentService, es *services.EnrollmentService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		enrollmentService: es,
	}
}

// CreateHandler обрабатывает POST /api/tournaments
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"success": true, "tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /api/tournaments?sport=
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var sport *string
	if s := r.URL.Query().Get("sport"); s != "" {
		sport = &s
	}

	tournaments, err := h.tournamentService.List(r.Context(), sport)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /api/tournaments/{tournamentID}
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if tournamentID == "" {
		badRequestResponse(w, r, errors.New("missing tournamentID"))
		return
	}

	tournament, err := h.tournamentService.GetByTournamentID(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type joinTournamentRequest struct {
	UserAddress string `json:"user_address"`
	Amount      string `json:"amount"`
}

// JoinHandler обрабатывает POST /api/tournaments/{tournamentID}/join
func (h *TournamentHandler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if tournamentID == "" {
		badRequestResponse(w, r, errors.New("missing tournamentID"))
		return
	}

	var input joinTournamentRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.enrollmentService.Join(r.Context(), tournamentID, input.UserAddress, input.Amount)
	if err != nil {
		// Отказ расчётов - особый случай: место уже занято, и вызывающий
		// должен это видеть, а не получить безликую ошибку шлюза.
		if errors.Is(err, services.ErrSettlementFailed) && result != nil {
			writeErr := writeJSON(w, http.StatusBadGateway, jsonResponse{
				"success":       false,
				"message":       "settlement failed, seat remains reserved",
				"seat_reserved": true,
				"tournament":    result.Tournament,
			}, nil)
			if writeErr != nil {
				serverErrorResponse(w, r, writeErr)
			}
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":          true,
		"message":          "joined tournament",
		"transaction_hash": result.TransactionHash,
		"tournament":       result.Tournament,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListParticipantsHandler обрабатывает GET /api/tournaments/{tournamentID}/participants
func (h *TournamentHandler) ListParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if tournamentID == "" {
		badRequestResponse(w, r, errors.New("missing tournamentID"))
		return
	}

	participants, err := h.tournamentService.ListParticipants(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
