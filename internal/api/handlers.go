package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/susu3304/tweetguessr/internal/game"
	"github.com/susu3304/tweetguessr/internal/geoscore"
	"github.com/susu3304/tweetguessr/internal/imagestore"
	"github.com/susu3304/tweetguessr/internal/mapproj"
	"github.com/susu3304/tweetguessr/internal/maps"
)

var errForbidden = errors.New("only the round's creator can do this")

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type mapView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

func newMapView(m maps.Map) mapView {
	v := mapView{ID: m.ID, Name: m.Name, Width: m.Width, Height: m.Height}
	if m.Image != "" {
		v.ImageURL = "/img/" + m.Image
	}
	return v
}

func (a *API) handleListMaps(w http.ResponseWriter, r *http.Request) {
	list := a.maps.List()
	out := make([]mapView, 0, len(list))
	for _, m := range list {
		out = append(out, newMapView(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) mapFromRequest(w http.ResponseWriter, r *http.Request) (maps.Map, bool) {
	m, err := a.maps.Get(mux.Vars(r)["map_id"])
	if err != nil {
		writeServiceError(w, err)
		return maps.Map{}, false
	}
	return m, true
}

func (a *API) handleGetMap(w http.ResponseWriter, r *http.Request) {
	m, ok := a.mapFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newMapView(m))
}

type unprojectRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

type coordinatesView struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Rho     float64 `json:"rho"`
	Azimuth float64 `json:"azimuth"`
	Pole    bool    `json:"pole,omitempty"`
}

func (a *API) handleUnproject(w http.ResponseWriter, r *http.Request) {
	m, ok := a.mapFromRequest(w, r)
	if !ok {
		return
	}
	var req unprojectRequest
	if !a.decode(w, r, &req) {
		return
	}
	g := mapproj.Unproject(*req.X, *req.Y, m.Projection())
	writeJSON(w, http.StatusOK, coordinatesView{Lat: g.Latitude, Lon: g.Longitude, Rho: g.Rho, Azimuth: g.Azimuth, Pole: g.Pole})
}

type projectRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

type pixelView struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Rho     float64 `json:"rho"`
	Azimuth float64 `json:"azimuth"`
	Pole    bool    `json:"pole,omitempty"`
}

func newPixelView(p mapproj.PixelResult) pixelView {
	return pixelView{X: p.X, Y: p.Y, Rho: p.Rho, Azimuth: p.Azimuth, Pole: p.Pole}
}

func (a *API) handleProject(w http.ResponseWriter, r *http.Request) {
	m, ok := a.mapFromRequest(w, r)
	if !ok {
		return
	}
	var req projectRequest
	if !a.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, newPixelView(mapproj.Project(*req.Lat, *req.Lon, m.Projection())))
}

type createRoundRequest struct {
	MapID string `json:"map_id" validate:"omitempty,max=64"`
}

// roundView never carries the answer before the round is closed.
type roundView struct {
	ID         string      `json:"id"`
	Status     game.Status `json:"status"`
	Map        mapView     `json:"map"`
	Text       string      `json:"text"`
	ImageURL   string      `json:"image_url"`
	Clues      []game.Clue `json:"clues"`
	CluesTotal int         `json:"clues_total"`
	Mine       bool        `json:"mine"`
	CreatedAt  time.Time   `json:"created_at"`
	ClosedAt   *time.Time  `json:"closed_at,omitempty"`
	Result     *resultView `json:"result,omitempty"`
}

type answerView struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	City       string    `json:"city"`
	Department string    `json:"department"`
	Province   string    `json:"province"`
	Marker     pixelView `json:"marker"`
}

type guessView struct {
	Rank       int       `json:"rank"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Source     string    `json:"source"`
	Score      int       `json:"score"`
	DistanceKm float64   `json:"distance_km"`
	Distance   string    `json:"distance"`
	Marker     pixelView `json:"marker"`
}

type resultView struct {
	Answer     answerView  `json:"answer"`
	Guesses    []guessView `json:"guesses"`
	MaxErrorKm float64     `json:"max_error_km"`
}

func newResultView(res *game.Result) *resultView {
	v := &resultView{
		Answer: answerView{
			Lat:        res.Round.AnswerLat,
			Lon:        res.Round.AnswerLng,
			City:       res.Tweet.City,
			Department: res.Tweet.Department,
			Province:   res.Tweet.Province,
			Marker:     newPixelView(res.Answer),
		},
		Guesses:    make([]guessView, 0, len(res.Guesses)),
		MaxErrorKm: res.MaxErrorMeters / 1000,
	}
	for _, g := range res.Guesses {
		v.Guesses = append(v.Guesses, guessView{
			Rank:       g.Rank,
			PlayerID:   g.PlayerID,
			PlayerName: g.PlayerName,
			Lat:        g.Lat,
			Lng:        g.Lng,
			Source:     g.Source,
			Score:      g.Score,
			DistanceKm: g.DistanceMeters / 1000,
			Distance:   geoscore.FormatDistance(g.DistanceMeters),
			Marker:     newPixelView(g.Marker),
		})
	}
	return v
}

func (a *API) roundView(r *http.Request, round *game.Round) (*roundView, error) {
	m, err := a.game.Map(round)
	if err != nil {
		return nil, err
	}
	t, err := a.game.Tweet(round)
	if err != nil {
		return nil, err
	}
	clues, err := a.game.Clues(round)
	if err != nil {
		return nil, err
	}

	v := &roundView{
		ID:         round.ID.String(),
		Status:     round.Status,
		Map:        newMapView(m),
		Text:       t.Text,
		ImageURL:   t.NewSrc,
		Clues:      clues,
		CluesTotal: game.MaxClues,
		CreatedAt:  round.CreatedAt,
		ClosedAt:   round.ClosedAt,
	}
	if m.Image != "" {
		v.ImageURL = "/img/" + m.Image
	}
	if c := claimsFrom(r.Context()); c != nil {
		v.Mine = c.UserID == round.PlayerID
	}
	if !round.Active() {
		res, err := a.game.Reveal(r.Context(), round.ID)
		if err != nil {
			return nil, err
		}
		v.Result = newResultView(res)
	}
	return v, nil
}

func (a *API) writeRound(w http.ResponseWriter, r *http.Request, status int, round *game.Round) {
	v, err := a.roundView(r, round)
	if err != nil {
		a.log.WithError(err).WithField("round", round.ID).Error("Failed to build round view")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, status, v)
}

func (a *API) handleCreateRound(w http.ResponseWriter, r *http.Request) {
	var req createRoundRequest
	if r.ContentLength != 0 && !a.decode(w, r, &req) {
		return
	}
	claims := claimsFrom(r.Context())
	round, err := a.game.StartRound(r.Context(), game.StartRequest{MapID: req.MapID, PlayerID: claims.UserID})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.writeRound(w, r, http.StatusCreated, round)
}

func (a *API) roundFromRequest(w http.ResponseWriter, r *http.Request) (*game.Round, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid round id")
		return nil, false
	}
	round, err := a.game.Round(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return round, true
}

// ownsRound writes 403 when a web round is driven by anyone but its creator.
func ownsRound(w http.ResponseWriter, r *http.Request, round *game.Round) bool {
	if round.ChannelID != "" || round.PlayerID == "" {
		return true
	}
	if c := claimsFrom(r.Context()); c != nil && c.UserID == round.PlayerID {
		return true
	}
	writeError(w, http.StatusForbidden, "forbidden", errForbidden.Error())
	return false
}

func (a *API) handleGetRound(w http.ResponseWriter, r *http.Request) {
	round, ok := a.roundFromRequest(w, r)
	if !ok {
		return
	}
	a.writeRound(w, r, http.StatusOK, round)
}

func (a *API) handleRevealClue(w http.ResponseWriter, r *http.Request) {
	round, ok := a.roundFromRequest(w, r)
	if !ok || !ownsRound(w, r, round) {
		return
	}
	clue, err := a.game.RevealClue(r.Context(), round.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clue)
}

// guessRequest is either a click on the displayed image or raw coordinates.
type guessRequest struct {
	BrowserX        *float64 `json:"browser_x" validate:"omitempty,gte=0"`
	BrowserY        *float64 `json:"browser_y" validate:"omitempty,gte=0"`
	DisplayedWidth  float64  `json:"displayed_width" validate:"gte=0"`
	DisplayedHeight float64  `json:"displayed_height" validate:"gte=0"`
	NaturalWidth    float64  `json:"natural_width" validate:"gte=0"`
	NaturalHeight   float64  `json:"natural_height" validate:"gte=0"`
	Lat             *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng             *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
}

func (g guessRequest) check() string {
	switch {
	case g.BrowserX != nil || g.BrowserY != nil:
		if g.BrowserX == nil || g.BrowserY == nil {
			return "browser_x and browser_y must be sent together"
		}
		if g.DisplayedWidth <= 0 || g.DisplayedHeight <= 0 {
			return "displayed_width and displayed_height are required with a click"
		}
	case g.Lat == nil || g.Lng == nil:
		return "send either browser_x/browser_y or lat/lng"
	}
	return ""
}

type guessResponse struct {
	Lat    float64    `json:"lat"`
	Lng    float64    `json:"lng"`
	Source string     `json:"source"`
	Marker *pixelView `json:"marker,omitempty"`
}

func (a *API) handleGuess(w http.ResponseWriter, r *http.Request) {
	round, ok := a.roundFromRequest(w, r)
	if !ok {
		return
	}
	var req guessRequest
	if !a.decode(w, r, &req) {
		return
	}
	if msg := req.check(); msg != "" {
		writeError(w, http.StatusBadRequest, "validation_error", msg)
		return
	}

	claims := claimsFrom(r.Context())
	var (
		g   *game.Guess
		err error
	)
	if req.BrowserX != nil {
		g, err = a.game.GuessPixel(r.Context(), round.ID, claims.UserID, claims.Username, game.Click{
			BrowserX:        *req.BrowserX,
			BrowserY:        *req.BrowserY,
			DisplayedWidth:  req.DisplayedWidth,
			DisplayedHeight: req.DisplayedHeight,
			NaturalWidth:    req.NaturalWidth,
			NaturalHeight:   req.NaturalHeight,
		})
	} else {
		g, err = a.game.GuessLatLng(r.Context(), round.ID, claims.UserID, claims.Username, *req.Lat, *req.Lng, game.SourceLatLng)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := guessResponse{Lat: g.Lat, Lng: g.Lng, Source: g.Source}
	if g.HasPixel {
		resp.Marker = &pixelView{X: g.PixelX, Y: g.PixelY}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleReveal(w http.ResponseWriter, r *http.Request) {
	round, ok := a.roundFromRequest(w, r)
	if !ok || !ownsRound(w, r, round) {
		return
	}
	if _, err := a.game.Reveal(r.Context(), round.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	round, err := a.game.Round(r.Context(), round.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.writeRound(w, r, http.StatusOK, round)
}

func (a *API) handleImage(w http.ResponseWriter, r *http.Request) {
	key, err := imagestore.CleanKey(mux.Vars(r)["key"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rc, info, err := a.images.Get(r.Context(), key)
	if err != nil {
		if !errors.Is(err, imagestore.ErrNotFound) {
			a.log.WithError(err).WithField("key", key).Error("Failed to read image")
		}
		writeServiceError(w, err)
		return
	}
	defer rc.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		a.log.WithError(err).WithField("key", key).Debug("Image copy interrupted")
	}
}
