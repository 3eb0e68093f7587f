package core

// System internal event codes. Application should use codes beyond 255.
type EventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// Keyboard key pressed.
	/* Context usage:
	 * key := ctx.Data.(*KeyEvent).KeyCode
	 */
	EVENT_CODE_KEY_PRESSED EventCode = 0x02

	// Keyboard key released.
	/* Context usage:
	 * key := ctx.Data.(*KeyEvent).KeyCode
	 */
	EVENT_CODE_KEY_RELEASED EventCode = 0x03

	// Mouse button pressed.
	EVENT_CODE_BUTTON_PRESSED EventCode = 0x04

	// Mouse button released.
	EVENT_CODE_BUTTON_RELEASED EventCode = 0x05

	// Mouse moved.
	/* Context usage:
	 * m := ctx.Data.(*MouseEvent) // PosX, PosY, DeltaX, DeltaY
	 */
	EVENT_CODE_MOUSE_MOVED EventCode = 0x06

	// Mouse wheel.
	EVENT_CODE_MOUSE_WHEEL EventCode = 0x07

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * s := ctx.Data.(*SystemEvent) // WindowWidth, WindowHeight
	 */
	EVENT_CODE_RESIZED EventCode = 0x08

	// A watched asset changed on disk.
	/* Context usage:
	 * a := ctx.Data.(*AssetEvent) // Name, Path
	 */
	EVENT_CODE_ASSET_CHANGED EventCode = 0x09

	MAX_EVENT_CODE EventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

type EventContext struct {
	Type EventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type MouseEvent struct {
	Button Button
	PosX   uint16
	PosY   uint16
	DeltaX float32
	DeltaY float32
	Scroll int8
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type AssetEvent struct {
	Name string
	Path string
}

// Should return true if handled.
type FnOnEvent func(ctx EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventCodeEntry struct {
	events []*registeredEvent
}

// State structure.
type eventSystemState struct {
	// Lookup table for event codes.
	registered [MAX_MESSAGE_CODES]eventCodeEntry
}

/**
 * Event system internal state. Events are dispatched synchronously on the
 * calling goroutine, which is always the main (window) thread.
 */
var eventState *eventSystemState = nil

func EventSystemInitialize() bool {
	if eventState != nil {
		return false
	}
	eventState = &eventSystemState{}
	return true
}

func EventSystemShutdown() error {
	// Free the events arrays. And objects pointed to should be destroyed on their own.
	eventState = nil
	return nil
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listeners will not be registered again and will cause this to return false.
 * @param code The event code to listen for.
 * @param listener A pointer to a listener instance. Can be nil.
 * @param onEvent The callback function to be invoked when the event code is fired.
 * @returns true if the event is successfully registered; otherwise false.
 */
func EventRegister(code EventCode, listener interface{}, onEvent FnOnEvent) bool {
	if eventState == nil || code < 0 || int(code) >= MAX_MESSAGE_CODES {
		return false
	}
	for _, e := range eventState.registered[code].events {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	eventState.registered[code].events = append(eventState.registered[code].events, &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code. If no matching
 * registration is found, this function returns false.
 */
func EventUnregister(code EventCode, listener interface{}) bool {
	if eventState == nil || code < 0 || int(code) >= MAX_MESSAGE_CODES {
		return false
	}
	events := eventState.registered[code].events
	for i, e := range events {
		if e.listener == listener {
			eventState.registered[code].events = append(events[:i], events[i+1:]...)
			return true
		}
	}
	// Not found.
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func EventFire(ctx EventContext) bool {
	if eventState == nil || ctx.Type < 0 || int(ctx.Type) >= MAX_MESSAGE_CODES {
		return false
	}
	for _, e := range eventState.registered[ctx.Type].events {
		if e.callback(ctx) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}
