package strategy

import (
	"context"
	stderrors "errors"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/vango-dev/codegame/internal/errors"
	"github.com/vango-dev/codegame/pkg/model"
	"github.com/vango-dev/codegame/pkg/runner"
	"github.com/vango-dev/codegame/pkg/stream"
)

func TestLookup(t *testing.T) {
	if got := Names(); !reflect.DeepEqual(got, []string{"chase", "idle"}) {
		t.Errorf("Names() = %v", got)
	}

	for _, name := range Names() {
		if s, err := Lookup(name); err != nil || s == nil {
			t.Errorf("Lookup(%q) = %v, %v", name, s, err)
		}
	}

	_, err := Lookup("nope")
	var ce *errors.CodegameError
	if !stderrors.As(err, &ce) || ce.Code != "E410" {
		t.Errorf("Lookup(nope) error = %v, want E410", err)
	}
}

func TestNearestEnemy(t *testing.T) {
	view := model.PlayerView{MyID: 0, Units: []model.Unit{
		{ID: 1, PlayerID: 0, Position: model.Vec2{X: 0, Y: 0}},
		{ID: 2, PlayerID: 0, Position: model.Vec2{X: 1, Y: 0}},
		{ID: 3, PlayerID: 1, Position: model.Vec2{X: 5, Y: 0}},
		{ID: 4, PlayerID: 1, Position: model.Vec2{X: 0, Y: 3}},
	}}

	got, ok := nearestEnemy(view, view.Units[0])
	if !ok || got.ID != 4 {
		t.Errorf("nearestEnemy(1) = %d, %v; want 4", got.ID, ok)
	}

	alone := model.PlayerView{Units: view.Units[:2]}
	if _, ok := nearestEnemy(alone, view.Units[0]); ok {
		t.Error("nearestEnemy() found an enemy where there is none")
	}
}

// TestChaseAgainstHost plays chase over a pipe and checks the orders and
// debug traffic the host sees.
func TestChaseAgainstHost(t *testing.T) {
	c1, c2 := net.Pipe()
	host := stream.New(c2, model.DecodeClientMessage, stream.Options{ReadTimeout: 5 * time.Second})
	defer host.Close()

	s, err := Lookup("chase")
	if err != nil {
		t.Fatal(err)
	}
	r := runner.New(c1, s)
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	view := model.PlayerView{MyID: 0, Units: []model.Unit{
		{ID: 1, PlayerID: 0, Position: model.Vec2{X: 0, Y: 0}},
		{ID: 9, PlayerID: 1, Position: model.Vec2{X: 4, Y: 0}},
	}}

	if err := host.SendFlush(model.GetAction{PlayerView: view}); err != nil {
		t.Fatal(err)
	}

	msg, err := host.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if dm, ok := msg.(model.DebugMessage); !ok {
		t.Errorf("first message = %#v, want debug log", msg)
	} else if _, ok := dm.Command.(model.DebugAdd); !ok {
		t.Errorf("debug command = %#v, want DebugAdd", dm.Command)
	}

	msg, err = host.Receive()
	if err != nil {
		t.Fatal(err)
	}
	am, ok := msg.(model.ActionMessage)
	if !ok || len(am.Action.Orders) != 1 {
		t.Fatalf("second message = %#v, want one order", msg)
	}
	order := am.Action.Orders[0]
	if order.UnitID != 1 || order.Attack == nil || *order.Attack != 9 || *order.MoveTo != (model.Vec2{X: 4}) {
		t.Errorf("order = %+v", order)
	}

	if err := host.SendFlush(model.DebugUpdate{PlayerView: view}); err != nil {
		t.Fatal(err)
	}
	var kinds []string
	for {
		msg, err := host.Receive()
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := msg.(model.DebugUpdateDone); ok {
			break
		}
		cmd := msg.(model.DebugMessage).Command
		switch c := cmd.(type) {
		case model.DebugClear:
			kinds = append(kinds, "clear")
		case model.DebugAdd:
			kinds = append(kinds, reflect.TypeOf(c.Data).Name())
		}
	}
	if want := []string{"clear", "DebugSegment", "DebugCircle"}; !reflect.DeepEqual(kinds, want) {
		t.Errorf("debug update commands = %v, want %v", kinds, want)
	}

	if err := host.SendFlush(model.Finish{}); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
