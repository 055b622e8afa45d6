package core

import "testing"

func TestEventRegisterFire(t *testing.T) {
	EventInitialize()
	defer EventShutdown()

	type listener struct{ got []uint32 }
	a, b := &listener{}, &listener{}

	handler := func(code SystemEventCode, sender interface{}, inst interface{}, ctx EventContext) bool {
		l := inst.(*listener)
		l.got = append(l.got, ctx.Data.U32[0])
		return false
	}
	if !EventRegister(EVENT_CODE_RESIZED, a, handler) {
		t.Fatal("register a failed")
	}
	if !EventRegister(EVENT_CODE_RESIZED, b, handler) {
		t.Fatal("register b failed")
	}
	if EventRegister(EVENT_CODE_RESIZED, a, handler) {
		t.Error("duplicate registration accepted")
	}

	ctx := EventContext{}
	ctx.Data.U32[0] = 800
	EventFire(EVENT_CODE_RESIZED, nil, ctx)

	if len(a.got) != 1 || len(b.got) != 1 || a.got[0] != 800 {
		t.Fatalf("listeners got a=%v b=%v", a.got, b.got)
	}

	if !EventUnregister(EVENT_CODE_RESIZED, a) {
		t.Fatal("unregister failed")
	}
	EventFire(EVENT_CODE_RESIZED, nil, ctx)
	if len(a.got) != 1 || len(b.got) != 2 {
		t.Errorf("after unregister a=%v b=%v", a.got, b.got)
	}
}

func TestEventHandledStopsPropagation(t *testing.T) {
	EventInitialize()
	defer EventShutdown()

	calls := 0
	stop := func(SystemEventCode, interface{}, interface{}, EventContext) bool { calls++; return true }
	first, second := new(int), new(int)
	EventRegister(EVENT_CODE_APPLICATION_QUIT, first, stop)
	EventRegister(EVENT_CODE_APPLICATION_QUIT, second, stop)

	if !EventFire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}) {
		t.Error("EventFire should report the event as handled")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
