package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the API routes. Study routes sit behind JWT auth; register
// and login are public.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/register", h.RegisterUser).Methods(http.MethodPost)
	r.HandleFunc("/api/login", h.LoginUser).Methods(http.MethodPost)

	study := r.PathPrefix("/api/study").Subrouter()
	study.Use(h.authMiddleware)
	study.HandleFunc("/due", h.GetDueItems).Methods(http.MethodGet)
	study.HandleFunc("/review", h.SubmitReview).Methods(http.MethodPost)
	study.HandleFunc("/items", h.AddItem).Methods(http.MethodPost)
	study.HandleFunc("/items/{id:[0-9]+}", h.DeleteItem).Methods(http.MethodDelete)

	return r
}
