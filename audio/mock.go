package audio

import "fmt"

// MockDevice is a Device with scriptable failures for lifecycle tests. It
// records the config and callback from Open and lets tests push sample
// buffers through TriggerCallback without real hardware.
type MockDevice struct {
	OpenErr        error // returned by Open
	OpenDefaultErr error // returned by OpenDefault
	StartErr       error // returned by Start
	StopErr        error // returned by Stop
	CloseErr       error // returned by Close

	OpenCalls        int
	OpenDefaultCalls int
	StartCalls       int
	StopCalls        int
	CloseCalls       int
	LastOpenID       int

	cfg     StreamConfig
	cb      Callback
	open    bool
	running bool
	lastErr string
}

// NewMockDevice creates a mock that succeeds on every call
func NewMockDevice() *MockDevice {
	return &MockDevice{LastOpenID: -1}
}

func (d *MockDevice) Open(id int, cfg StreamConfig, cb Callback) error {
	d.OpenCalls++
	d.LastOpenID = id
	if d.OpenErr != nil {
		return d.fail(d.OpenErr)
	}
	return d.bind(cfg, cb)
}

func (d *MockDevice) OpenDefault(cfg StreamConfig, cb Callback) error {
	d.OpenDefaultCalls++
	if d.OpenDefaultErr != nil {
		return d.fail(d.OpenDefaultErr)
	}
	return d.bind(cfg, cb)
}

func (d *MockDevice) bind(cfg StreamConfig, cb Callback) error {
	if d.open {
		return d.fail(fmt.Errorf("device already open"))
	}
	if err := cfg.Validate(); err != nil {
		return d.fail(err)
	}
	d.cfg = cfg
	d.cb = cb
	d.open = true
	return nil
}

func (d *MockDevice) Start() error {
	d.StartCalls++
	if !d.open {
		return d.fail(fmt.Errorf("device not open"))
	}
	if d.StartErr != nil {
		return d.fail(d.StartErr)
	}
	d.running = true
	return nil
}

func (d *MockDevice) Stop() error {
	d.StopCalls++
	if d.StopErr != nil {
		return d.fail(d.StopErr)
	}
	d.running = false
	return nil
}

func (d *MockDevice) Close() error {
	d.CloseCalls++
	if d.CloseErr != nil {
		return d.fail(d.CloseErr)
	}
	d.open = false
	d.running = false
	d.cb = nil
	return nil
}

func (d *MockDevice) IsOpen() bool    { return d.open }
func (d *MockDevice) IsRunning() bool { return d.running }

func (d *MockDevice) SampleRate() float64 {
	if !d.open {
		return 0
	}
	return d.cfg.SampleRate
}

func (d *MockDevice) Channels() int {
	if !d.open {
		return 0
	}
	return d.cfg.Channels
}

func (d *MockDevice) LastError() string { return d.lastErr }

// TriggerCallback invokes the bound callback with the given buffer, as the
// device thread would. It does nothing unless the mock is running.
func (d *MockDevice) TriggerCallback(buf []float64) {
	if d.running && d.cb != nil {
		d.cb(buf)
	}
}

func (d *MockDevice) fail(err error) error {
	d.lastErr = err.Error()
	return err
}
