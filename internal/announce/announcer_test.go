package announce

import (
	"context"
	"errors"
	"testing"
)

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return s.reply, s.err
}

func sampleRun() RunDetails {
	return RunDetails{
		Restaurant: "Cookout",
		DropPoint:  "Hunt Library",
		ETA:        "7:30pm",
		Capacity:   5,
	}
}

func TestAnnounceUsesUpstreamCopy(t *testing.T) {
	a := New(stubCompleter{reply: "Cookout convoy rolling to Hunt Library at 7:30!"}, nil)
	got := a.Announce(context.Background(), sampleRun())
	if got != "Cookout convoy rolling to Hunt Library at 7:30!" {
		t.Fatalf("unexpected announcement %q", got)
	}
}

func TestAnnounceFallsBackOnError(t *testing.T) {
	a := New(stubCompleter{err: errors.New("upstream down")}, nil)
	got := a.Announce(context.Background(), sampleRun())
	want := "Cookout run! Drop point: Hunt Library. ETA 7:30pm. 5 seats, join now!"
	if got != want {
		t.Fatalf("expected template %q, got %q", want, got)
	}
}

func TestAnnounceFallsBackWithoutClient(t *testing.T) {
	a := New(nil, nil)
	got := a.Announce(context.Background(), sampleRun())
	want := "Cookout run! Drop point: Hunt Library. ETA 7:30pm. 5 seats, join now!"
	if got != want {
		t.Fatalf("expected template %q, got %q", want, got)
	}
}

func TestAnnounceFallsBackOnEmptyReply(t *testing.T) {
	a := New(stubCompleter{reply: ""}, nil)
	got := a.Announce(context.Background(), sampleRun())
	want := "Cookout run! Drop point: Hunt Library. ETA 7:30pm. 5 seats, join now!"
	if got != want {
		t.Fatalf("expected template %q, got %q", want, got)
	}
}
