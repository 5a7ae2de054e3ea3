package playback

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/linuxmatters/jiveplay/internal/audio"
)

func TestGainTaper(t *testing.T) {
	testCases := []struct {
		name   string
		gain   float64
		minDB  float64
		maxDB  float64
		wantDB float64
	}{
		{name: "silent", gain: 0, minDB: -80, maxDB: 6, wantDB: -80},
		{name: "full", gain: 1, minDB: -80, maxDB: 6, wantDB: 3},
		{name: "full on attenuate-only range", gain: 1, minDB: -80, maxDB: 0, wantDB: 0},
		{name: "clamped below", gain: -1, minDB: -80, maxDB: 6, wantDB: -80},
		{name: "clamped above", gain: 2, minDB: -80, maxDB: 6, wantDB: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := gainToDB(tc.gain, tc.minDB, tc.maxDB)
			if math.Abs(db-tc.wantDB) > 1e-9 {
				t.Errorf("gainToDB(%v) = %v, want %v", tc.gain, db, tc.wantDB)
			}
		})
	}
}

// TestGainTaper_RoundTrip checks dbToGain inverts gainToDB and the taper
// rises monotonically.
func TestGainTaper_RoundTrip(t *testing.T) {
	prev := math.Inf(-1)
	for i := 0; i <= 20; i++ {
		v := float64(i) / 20
		db := gainToDB(v, -80, 6)
		if db <= prev && i > 0 {
			t.Errorf("taper not increasing at %v: %v <= %v", v, db, prev)
		}
		prev = db

		if back := dbToGain(db, -80, 6); math.Abs(back-v) > 1e-9 {
			t.Errorf("dbToGain(gainToDB(%v)) = %v", v, back)
		}
	}

	// Half gain sits near -6 dB of the top of the taper
	t.Logf("gain 0.5 -> %.2f dB", gainToDB(0.5, -80, 6))
	if db := gainToDB(0.5, -80, 6); db < -4 || db > -2 {
		t.Errorf("gainToDB(0.5) = %.2f dB, want about -3", db)
	}
}

func TestGain_PersistsAcrossOpen(t *testing.T) {
	path := writeSineWAV(t, 1, 8000, 1)
	p, device, _ := openPlayer(t, path, 20)

	if err := p.SetGain(0.4); err != nil {
		t.Fatalf("SetGain: %v", err)
	}
	p.Play()
	waitFor(t, 2*time.Second, "end of media", func() bool { return p.Status() == Stopped })

	if err := p.Open(audio.NewFileSource(path)); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	g, err := p.Gain()
	if err != nil {
		t.Fatalf("Gain: %v", err)
	}
	if math.Abs(g-0.4) > 1e-9 {
		t.Errorf("Gain after reopen = %v, want 0.4", g)
	}
	if db := device.Controls().Gain.Value(); math.Abs(db-gainToDB(0.4, -80, 6)) > 1e-9 {
		t.Errorf("device gain = %v dB", db)
	}
}

// TestAwaitHandoff drives the stale-loop wait directly with sessions that
// exit at different points.
func TestAwaitHandoff(t *testing.T) {
	newSession := func() *session {
		d := newGuardDevice(1)
		return &session{
			device: d,
			cancel: make(chan struct{}),
			done:   make(chan struct{}),
		}
	}

	testCases := []struct {
		name          string
		exit          func(s *session)
		wantErr       error
		wantCancelled bool
	}{
		{
			name:    "already exited",
			exit:    func(s *session) { close(s.done) },
			wantErr: nil,
		},
		{
			name: "exits while waiting",
			exit: func(s *session) {
				go func() {
					time.Sleep(15 * time.Millisecond)
					close(s.done)
				}()
			},
			wantErr: nil,
		},
		{
			name: "exits when cancelled",
			exit: func(s *session) {
				go func() {
					<-s.cancel
					close(s.done)
				}()
			},
			wantErr:       nil,
			wantCancelled: true,
		},
		{
			name:          "never exits",
			exit:          func(s *session) {},
			wantErr:       ErrStaleDecoder,
			wantCancelled: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.HandoffWait = 10 * time.Millisecond
			cfg.HandoffCycles = 2
			p := New(cfg)

			s := newSession()
			tc.exit(s)

			start := time.Now()
			err := p.awaitHandoff(s)
			t.Logf("returned after %v", time.Since(start))

			if !errors.Is(err, tc.wantErr) {
				t.Errorf("awaitHandoff = %v, want %v", err, tc.wantErr)
			}
			if s.cancelled() != tc.wantCancelled {
				t.Errorf("cancelled = %v, want %v", s.cancelled(), tc.wantCancelled)
			}
		})
	}
}
