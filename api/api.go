// Package api exposes the player's configuration surface over HTTP, for
// browser-based editors.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bep/debounce"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	nashville "github.com/cbegin/nashville-go"
)

// Controller is the slice of the player the API drives.
type Controller interface {
	Start() error
	Stop()
	SetProgression(nashville.Progression) error
	Progression() nashville.Progression
	SetTempo(bpm int)
	Tempo() int
	SetKey(name string, mode nashville.Mode) error
	Key() (string, nashville.Mode)
	SetStrumDivision(beats int) error
	StrumDivision() int
	SetInstrument(nashville.Instrument) error
	Instrument() nashville.Instrument
	SetChordVolume(int)
	SetMetronomeVolume(int)
	ChordVolume() int
	MetronomeVolume() int
	IsPlaying() bool
	ChordIndex() int
	Beat() int
	Progress() float64
}

type stateResponse struct {
	Playing         bool    `json:"playing"`
	ChordIndex      int     `json:"chordIndex"`
	Beat            int     `json:"beat"`
	Progress        float64 `json:"progress"`
	Tempo           int     `json:"tempo"`
	Key             string  `json:"key"`
	Mode            string  `json:"mode"`
	StrumDivision   int     `json:"strumDivision"`
	Instrument      string  `json:"instrument"`
	Progression     string  `json:"progression"`
	ChordVolume     int     `json:"chordVolume"`
	MetronomeVolume int     `json:"metronomeVolume"`
}

type handler struct {
	player Controller

	// Progression edits arrive per keystroke from editors; debounce them so
	// playback is rebuilt once per pause in typing.
	debounce func(func())
}

func writeErr(w http.ResponseWriter, err error) {
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleStateGet(w http.ResponseWriter, r *http.Request) {
	key, mode := h.player.Key()
	resp := stateResponse{
		Playing:         h.player.IsPlaying(),
		ChordIndex:      h.player.ChordIndex(),
		Beat:            h.player.Beat(),
		Progress:        h.player.Progress(),
		Tempo:           h.player.Tempo(),
		Key:             key,
		Mode:            string(mode),
		StrumDivision:   h.player.StrumDivision(),
		Instrument:      string(h.player.Instrument()),
		Progression:     h.player.Progression().String(),
		ChordVolume:     h.player.ChordVolume(),
		MetronomeVolume: h.player.MetronomeVolume(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *handler) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := h.player.Start(); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w)
}

func (h *handler) handleStop(w http.ResponseWriter, r *http.Request) {
	h.player.Stop()
	writeOK(w)
}

func (h *handler) handleTempoPut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tempo int `json:"tempo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, err)
		return
	}
	h.player.SetTempo(body.Tempo)
	writeOK(w)
}

func (h *handler) handleKeyPut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key  string `json:"key"`
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, err)
		return
	}
	mode := nashville.ModeMajor
	if body.Mode == string(nashville.ModeMinor) {
		mode = nashville.ModeMinor
	}
	if err := h.player.SetKey(body.Key, mode); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w)
}

func (h *handler) handleStrumPut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Division int `json:"division"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.player.SetStrumDivision(body.Division); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w)
}

func (h *handler) handleInstrumentPut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Instrument string `json:"instrument"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.player.SetInstrument(nashville.Instrument(body.Instrument)); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w)
}

func (h *handler) handleVolumePut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Chord     *int `json:"chord"`
		Metronome *int `json:"metronome"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, err)
		return
	}
	if body.Chord != nil {
		h.player.SetChordVolume(*body.Chord)
	}
	if body.Metronome != nil {
		h.player.SetMetronomeVolume(*body.Metronome)
	}
	writeOK(w)
}

func (h *handler) handleProgressionPut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Progression string `json:"progression"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, err)
		return
	}
	prog, err := nashville.ParseProgression(body.Progression)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.debounce(func() {
		_ = h.player.SetProgression(prog)
	})
	writeOK(w)
}

// NewHandler builds the HTTP control surface. editDelay is how long
// progression edits are debounced before being applied; zero applies them
// immediately.
func NewHandler(player Controller, editDelay time.Duration) http.Handler {
	h := &handler{player: player}
	if editDelay > 0 {
		h.debounce = debounce.New(editDelay)
	} else {
		h.debounce = func(f func()) { f() }
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/state", h.handleStateGet).Methods(http.MethodGet)
	r.HandleFunc("/api/start", h.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/api/stop", h.handleStop).Methods(http.MethodPost)
	r.HandleFunc("/api/tempo", h.handleTempoPut).Methods(http.MethodPut)
	r.HandleFunc("/api/key", h.handleKeyPut).Methods(http.MethodPut)
	r.HandleFunc("/api/strum", h.handleStrumPut).Methods(http.MethodPut)
	r.HandleFunc("/api/instrument", h.handleInstrumentPut).Methods(http.MethodPut)
	r.HandleFunc("/api/volume", h.handleVolumePut).Methods(http.MethodPut)
	r.HandleFunc("/api/progression", h.handleProgressionPut).Methods(http.MethodPut)

	return cors.AllowAll().Handler(r)
}
