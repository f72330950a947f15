package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
)

// maxImageBytes caps pest photo uploads.
const maxImageBytes = 10 << 20

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	Language       string `json:"language"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	sess, err := s.svc.Sessions.Login(req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: sess})
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, _ *http.Request) {
	sess, ok := s.svc.Sessions.Current()
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no active session")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: sess})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.svc.Sessions.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCurrentWeather(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := coordinates(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	res, err := s.svc.Weather.Current(r.Context(), lat, lon)
	writeResult(s, w, res, err)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := coordinates(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	res, err := s.svc.Weather.Forecast(r.Context(), lat, lon)
	writeResult(s, w, res, err)
}

func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	writeData(w, s.svc.Weather.Alerts())
}

func (s *Server) handleMarketPrices(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := coordinates(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	q := r.URL.Query()
	loc := domain.Location{
		Latitude:  lat,
		Longitude: lon,
		District:  q.Get("district"),
		State:     q.Get("state"),
		Pincode:   q.Get("pincode"),
	}
	res, err := s.svc.Market.Prices(r.Context(), loc)
	writeResult(s, w, res, err)
}

func (s *Server) handleCropRecommendations(w http.ResponseWriter, r *http.Request) {
	season, err := domain.ParseSeason(r.URL.Query().Get("season"))
	if err != nil {
		s.writeServiceError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	writeData(w, s.svc.Fallback.CropRecommendations(season))
}

func (s *Server) handleDetectPest(w http.ResponseWriter, r *http.Request) {
	img, err := readImage(w, r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	res, err := s.svc.Pest.Detect(r.Context(), img)
	writeResult(s, w, res, err)
}

func (s *Server) handleSimulatePest(w http.ResponseWriter, r *http.Request) {
	img, err := readImage(w, r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	res, err := s.svc.Pest.Simulate(r.Context(), img)
	writeResult(s, w, res, err)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	reply, err := s.svc.Assistant.Send(r.Context(), req.ConversationID, req.Message, req.Language)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, reply)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	turns, err := s.svc.Assistant.History(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, turns)
}

func (s *Server) handleCommunityPosts(w http.ResponseWriter, _ *http.Request) {
	writeData(w, s.svc.Fallback.CommunityPosts())
}

func (s *Server) handleTips(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.svc.Fallback.FarmingTips(r.URL.Query().Get("category")))
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := q.Get("text")
	if text == "" {
		s.writeServiceError(w, fmt.Errorf("%w: text is required", errBadRequest))
		return
	}
	lang := domain.NormalizeLanguage(q.Get("lang"))
	writeData(w, map[string]string{
		"text":        text,
		"language":    lang,
		"translation": s.svc.Fallback.Translate(text, lang),
	})
}

func coordinates(r *http.Request) (float64, float64, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: lat must be a number", errBadRequest)
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: lon must be a number", errBadRequest)
	}
	return lat, lon, nil
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %w", errBadRequest, err)
	}
	return nil
}

// readImage accepts a multipart upload in the "image" field or a raw image body.
func readImage(w http.ResponseWriter, r *http.Request) (domain.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("image")
		if err != nil {
			return domain.Image{}, fmt.Errorf("%w: image field: %w", errBadRequest, err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return domain.Image{}, fmt.Errorf("%w: read image: %w", errBadRequest, err)
		}
		return domain.Image{Name: header.Filename, ContentType: header.Header.Get("Content-Type"), Data: data}, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: read image: %w", errBadRequest, err)
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}
	return domain.Image{Name: name, ContentType: r.Header.Get("Content-Type"), Data: data}, nil
}
