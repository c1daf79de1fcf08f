package api

import (
	"net/http"
	"time"

	"github.com/OfekItzhaki/horizon-hcm/pkg/store"
)

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	CreatedAt   string `json:"createdAt"`
}

type apartmentResponse struct {
	ID         string `json:"id"`
	BuildingID string `json:"buildingId"`
	Number     string `json:"number"`
	CreatedAt  string `json:"createdAt"`
}

type paymentResponse struct {
	ID          string  `json:"id"`
	ApartmentID string  `json:"apartmentId"`
	AmountCents int64   `json:"amountCents"`
	Status      string  `json:"status"`
	DueAt       *string `json:"dueAt,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

type maintenanceRequestResponse struct {
	ID          string `json:"id"`
	BuildingID  string `json:"buildingId"`
	RequesterID string `json:"requesterId,omitempty"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.resources.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   formatTime(u.CreatedAt),
	})
}

func (s *Server) handleGetApartment(w http.ResponseWriter, r *http.Request) {
	a, err := s.resources.GetApartment(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err, "apartment")
		return
	}
	writeJSON(w, http.StatusOK, apartmentResponse{
		ID:         a.ID,
		BuildingID: a.BuildingID,
		Number:     a.Number,
		CreatedAt:  formatTime(a.CreatedAt),
	})
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.resources.GetPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err, "payment")
		return
	}
	writeJSON(w, http.StatusOK, paymentToResponse(p))
}

func paymentToResponse(p *store.Payment) paymentResponse {
	resp := paymentResponse{
		ID:          p.ID,
		ApartmentID: p.ApartmentID,
		AmountCents: p.AmountCents,
		Status:      p.Status,
		CreatedAt:   formatTime(p.CreatedAt),
	}
	if p.DueAt != nil {
		due := formatTime(*p.DueAt)
		resp.DueAt = &due
	}
	return resp
}

func (s *Server) handleGetMaintenanceRequest(w http.ResponseWriter, r *http.Request) {
	m, err := s.resources.GetMaintenanceRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err, "maintenance request")
		return
	}
	writeJSON(w, http.StatusOK, maintenanceRequestResponse{
		ID:          m.ID,
		BuildingID:  m.BuildingID,
		RequesterID: m.RequesterID,
		Title:       m.Title,
		Status:      m.Status,
		CreatedAt:   formatTime(m.CreatedAt),
	})
}

func (s *Server) handleDeleteMaintenanceRequest(w http.ResponseWriter, r *http.Request) {
	if err := s.resources.DeleteMaintenanceRequest(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err, "maintenance request")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	if err := s.resources.DeleteAnnouncement(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err, "announcement")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.resources.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err, "document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
