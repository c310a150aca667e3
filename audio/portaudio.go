package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Initialize prepares the PortAudio backend. Call once before any device use;
// pair with Terminate.
func Initialize() error {
	return portaudio.Initialize()
}

// Terminate releases the PortAudio backend
func Terminate() error {
	return portaudio.Terminate()
}

// Devices enumerates all devices the backend exposes. The returned IDs are
// valid arguments for Device.Open until the backend is reinitialized.
func Devices() ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	defaultIn, _ := portaudio.DefaultInputDevice()
	defaultOut, _ := portaudio.DefaultOutputDevice()

	infos := make([]DeviceInfo, 0, len(devices))
	for i, d := range devices {
		infos = append(infos, DeviceInfo{
			ID:                i,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			MaxOutputChannels: d.MaxOutputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			IsDefaultInput:    d == defaultIn,
			IsDefaultOutput:   d == defaultOut,
		})
	}
	return infos, nil
}

// PortAudioDevice adapts one directional PortAudio stream to the Device
// interface. The backend delivers float32 buffers; samples cross through a
// preallocated float64 scratch buffer so the callback path never allocates.
type PortAudioDevice struct {
	input bool

	stream  *portaudio.Stream
	cfg     StreamConfig
	cb      Callback
	scratch []float64

	open    bool
	running bool
	lastErr string
}

// NewInputDevice creates an unopened capture device
func NewInputDevice() *PortAudioDevice {
	return &PortAudioDevice{input: true}
}

// NewOutputDevice creates an unopened playback device
func NewOutputDevice() *PortAudioDevice {
	return &PortAudioDevice{}
}

// Open binds the device with the given PortAudio device index
func (d *PortAudioDevice) Open(id int, cfg StreamConfig, cb Callback) error {
	devices, err := portaudio.Devices()
	if err != nil {
		return d.fail(fmt.Errorf("failed to enumerate devices: %w", err))
	}
	if id < 0 || id >= len(devices) {
		return d.fail(fmt.Errorf("device id %d out of range (%d devices)", id, len(devices)))
	}
	return d.openInfo(devices[id], cfg, cb)
}

// OpenDefault binds the backend's default device for this direction
func (d *PortAudioDevice) OpenDefault(cfg StreamConfig, cb Callback) error {
	var info *portaudio.DeviceInfo
	var err error
	if d.input {
		info, err = portaudio.DefaultInputDevice()
	} else {
		info, err = portaudio.DefaultOutputDevice()
	}
	if err != nil {
		return d.fail(fmt.Errorf("no default device: %w", err))
	}
	return d.openInfo(info, cfg, cb)
}

func (d *PortAudioDevice) openInfo(info *portaudio.DeviceInfo, cfg StreamConfig, cb Callback) error {
	if d.open {
		return d.fail(fmt.Errorf("device already open"))
	}
	if err := cfg.Validate(); err != nil {
		return d.fail(fmt.Errorf("invalid stream config: %w", err))
	}
	if cb == nil {
		return d.fail(fmt.Errorf("callback must not be nil"))
	}

	var params portaudio.StreamParameters
	if d.input {
		params = portaudio.LowLatencyParameters(info, nil)
		params.Input.Channels = cfg.Channels
	} else {
		params = portaudio.LowLatencyParameters(nil, info)
		params.Output.Channels = cfg.Channels
	}
	params.SampleRate = cfg.SampleRate
	params.FramesPerBuffer = cfg.FramesPerBuffer

	d.cfg = cfg
	d.cb = cb
	d.scratch = make([]float64, cfg.FramesPerBuffer*cfg.Channels)

	var stream *portaudio.Stream
	var err error
	if d.input {
		stream, err = portaudio.OpenStream(params, d.onInput)
	} else {
		stream, err = portaudio.OpenStream(params, d.onOutput)
	}
	if err != nil {
		return d.fail(fmt.Errorf("failed to open stream on %q: %w", info.Name, err))
	}

	d.stream = stream
	d.open = true
	d.lastErr = ""
	return nil
}

// onInput converts captured samples to float64 and hands them to the
// callback, chunking oversized buffers through the fixed scratch
func (d *PortAudioDevice) onInput(in []float32) {
	for len(in) > 0 {
		n := len(in)
		if n > len(d.scratch) {
			n = len(d.scratch)
		}
		for i := 0; i < n; i++ {
			d.scratch[i] = float64(in[i])
		}
		d.cb(d.scratch[:n])
		in = in[n:]
	}
}

// onOutput lets the callback fill the scratch buffer, then converts down to
// the backend's float32 frames
func (d *PortAudioDevice) onOutput(out []float32) {
	for len(out) > 0 {
		n := len(out)
		if n > len(d.scratch) {
			n = len(d.scratch)
		}
		d.cb(d.scratch[:n])
		for i := 0; i < n; i++ {
			out[i] = float32(d.scratch[i])
		}
		out = out[n:]
	}
}

// Start begins callback delivery
func (d *PortAudioDevice) Start() error {
	if !d.open {
		return d.fail(fmt.Errorf("device not open"))
	}
	if d.running {
		return nil
	}
	if err := d.stream.Start(); err != nil {
		return d.fail(fmt.Errorf("failed to start stream: %w", err))
	}
	d.running = true
	return nil
}

// Stop pauses callback delivery; the device stays open
func (d *PortAudioDevice) Stop() error {
	if !d.running {
		return nil
	}
	if err := d.stream.Stop(); err != nil {
		return d.fail(fmt.Errorf("failed to stop stream: %w", err))
	}
	d.running = false
	return nil
}

// Close releases the device. Closing a closed device is a no-op.
func (d *PortAudioDevice) Close() error {
	if !d.open {
		return nil
	}
	if d.running {
		if err := d.stream.Stop(); err != nil {
			d.lastErr = err.Error()
		}
		d.running = false
	}
	err := d.stream.Close()
	d.stream = nil
	d.open = false
	if err != nil {
		return d.fail(fmt.Errorf("failed to close stream: %w", err))
	}
	return nil
}

func (d *PortAudioDevice) IsOpen() bool    { return d.open }
func (d *PortAudioDevice) IsRunning() bool { return d.running }

func (d *PortAudioDevice) SampleRate() float64 {
	if !d.open {
		return 0
	}
	return d.cfg.SampleRate
}

func (d *PortAudioDevice) Channels() int {
	if !d.open {
		return 0
	}
	return d.cfg.Channels
}

// LastError returns the most recent failure description
func (d *PortAudioDevice) LastError() string {
	return d.lastErr
}

func (d *PortAudioDevice) fail(err error) error {
	d.lastErr = err.Error()
	return err
}
