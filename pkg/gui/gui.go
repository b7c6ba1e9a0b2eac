// Package gui provides an SDL2-backed window that drives a console.Machine
// at the NES's native frame rate and presents its video and audio output.
package gui

import (
	"fmt"
	"os"
	"runtime"
	"time"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/eightbitcore/nes/pkg/console"
	"github.com/eightbitcore/nes/pkg/logger"
	"github.com/eightbitcore/nes/pkg/ppu"
)

const (
	WindowWidth  = 256 * 3 // NES resolution 256x240 scaled 3x
	WindowHeight = 240 * 3
	WindowTitle  = "eightbitcore/nes"

	AudioSampleRate = 44100
	AudioBufferSize = 1024
	AudioChannels   = 1
	AudioFormat     = sdl.AUDIO_F32LSB

	TargetFPS = 60.0988 // NES actual framerate
)

// FrameTime is the NTSC NES frame period taken from the rounded 60.0988 Hz
// rate (1,789,773 / 29,780.5 Hz): 1e9 / 60.0988 ns, to the nearest
// nanosecond.
var FrameTime = time.Duration(16639267) * time.Nanosecond

// buttonKeymap maps an SDL keycode to a controller-0 button index, in the
// [A, B, Select, Start, Up, Down, Left, Right] order console.Machine expects.
var buttonKeymap = map[sdl.Keycode]int{
	sdl.K_z:     0,
	sdl.K_x:     1,
	sdl.K_a:     2,
	sdl.K_s:     3,
	sdl.K_UP:    4,
	sdl.K_DOWN:  5,
	sdl.K_LEFT:  6,
	sdl.K_RIGHT: 7,
}

// NESGUI is an SDL2 window driving a console.Machine.
type NESGUI struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	machine  *console.Machine
	running  bool

	buttons       [8]bool
	screenshotNum int

	audioDevice sdl.AudioDeviceID
	audioSpec   *sdl.AudioSpec

	fpsCounter int
	fpsTimer   time.Time
	currentFPS float64
	showFPS    bool

	frame ppu.Frame
}

// NewNESGUI opens a window and audio device bound to machine.
func NewNESGUI(machine *console.Machine) (*NESGUI, error) {
	runtime.LockOSThread()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return nil, err
	}

	window, err := sdl.CreateWindow(
		WindowTitle,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		WindowWidth,
		WindowHeight,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return nil, err
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, err
	}
	renderer.SetDrawBlendMode(sdl.BLENDMODE_NONE)

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING,
		256,
		240,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, err
	}
	texture.SetBlendMode(sdl.BLENDMODE_NONE)

	gui := &NESGUI{
		window:   window,
		renderer: renderer,
		texture:  texture,
		machine:  machine,
		running:  true,
		fpsTimer: time.Now(),
		showFPS:  true,
	}

	if err := gui.initAudio(); err != nil {
		logger.LogError("audio init failed: %v (continuing without sound)", err)
	}

	return gui, nil
}

// Destroy releases the SDL window, renderer, texture, and audio device.
func (g *NESGUI) Destroy() {
	if g.audioDevice != 0 {
		sdl.CloseAudioDevice(g.audioDevice)
	}
	if g.texture != nil {
		g.texture.Destroy()
	}
	if g.renderer != nil {
		g.renderer.Destroy()
	}
	if g.window != nil {
		g.window.Destroy()
	}
	sdl.Quit()
}

// Run drives the emulator and window at the NES's native frame rate until
// the user closes the window or presses Escape.
func (g *NESGUI) Run() {
	frameCount := 0
	startTime := time.Now()

	for g.running {
		g.handleEvents()
		g.update()
		g.render()

		frameCount++
		targetEndTime := startTime.Add(time.Duration(frameCount) * FrameTime)
		if now := time.Now(); now.Before(targetEndTime) {
			time.Sleep(targetEndTime.Sub(now))
		}
	}
}

func (g *NESGUI) handleEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			g.running = false
		case *sdl.KeyboardEvent:
			g.handleKeyboard(e)
		}
	}
}

func (g *NESGUI) handleKeyboard(event *sdl.KeyboardEvent) {
	pressed := event.State == sdl.PRESSED

	if idx, ok := buttonKeymap[event.Keysym.Sym]; ok {
		g.buttons[idx] = pressed
		g.machine.LoadButtons(0, g.buttons)
		return
	}

	switch event.Keysym.Sym {
	case sdl.K_ESCAPE:
		g.running = false
	case sdl.K_F12:
		if pressed {
			g.saveScreenshot()
		}
	case sdl.K_F3:
		if pressed {
			g.showFPS = !g.showFPS
		}
	}
}

// update ticks the machine until a whole frame is composed, then queues
// the audio that accumulated while producing it.
func (g *NESGUI) update() {
	for {
		g.machine.Tick()
		if frame, ok := g.machine.TakeFrame(); ok {
			g.frame = frame
			break
		}
	}
	g.queueAudio()
	g.updateFPS()
}

// render uploads the frame update() just produced to the streaming
// texture and presents it.
func (g *NESGUI) render() {
	var pixels [240 * 256 * 4]byte
	for row := 0; row < 240; row++ {
		for col := 0; col < 256; col++ {
			c := g.frame[row][col]
			idx := (row*256 + col) * 4
			pixels[idx+0] = c.R
			pixels[idx+1] = c.G
			pixels[idx+2] = c.B
			pixels[idx+3] = 0xFF
		}
	}
	g.texture.Update(nil, unsafe.Pointer(&pixels[0]), 256*4)

	g.renderer.SetDrawColor(0, 0, 0, 255)
	g.renderer.Clear()
	g.renderer.Copy(g.texture, nil, nil)

	if g.showFPS {
		g.updateWindowTitle()
	}
	g.renderer.Present()
}

func (g *NESGUI) saveScreenshot() {
	filename := fmt.Sprintf("screenshot_%03d.png", g.screenshotNum)
	g.screenshotNum++

	w, h, _ := g.renderer.GetOutputSize()
	pixels := make([]byte, w*h*4)
	if err := g.renderer.ReadPixels(nil, sdl.PIXELFORMAT_RGBA8888, unsafe.Pointer(&pixels[0]), int(w*4)); err != nil {
		logger.LogError("failed to read pixels: %v", err)
		return
	}

	file, err := os.Create(filename)
	if err != nil {
		logger.LogError("failed to create %s: %v", filename, err)
		return
	}
	defer file.Close()
	if _, err := file.Write(pixels); err != nil {
		logger.LogError("failed to write %s: %v", filename, err)
		return
	}
	logger.LogInfo("screenshot saved: %s (%d bytes)", filename, len(pixels))
}

// initAudio opens the SDL audio device, falling back to 16-bit PCM when
// the float32 format isn't supported by the host driver.
func (g *NESGUI) initAudio() error {
	want := &sdl.AudioSpec{
		Freq:     AudioSampleRate,
		Format:   AudioFormat,
		Channels: AudioChannels,
		Samples:  AudioBufferSize,
	}

	var have sdl.AudioSpec
	device, err := sdl.OpenAudioDevice("", false, want, &have, sdl.AUDIO_ALLOW_ANY_CHANGE)
	if err != nil {
		want.Format = sdl.AUDIO_S16LSB
		device, err = sdl.OpenAudioDevice("", false, want, &have, sdl.AUDIO_ALLOW_ANY_CHANGE)
		if err != nil {
			return fmt.Errorf("open audio device: %w", err)
		}
	}

	g.audioDevice = device
	g.audioSpec = &have
	logger.LogInfo("audio device opened: %dHz %d channel(s) format=0x%x buffer=%d",
		have.Freq, have.Channels, have.Format, have.Samples)

	sdl.PauseAudioDevice(device, false)
	return nil
}

// queueAudio drains the machine's resampled output buffer to the SDL
// audio device, throttled to roughly two buffers' worth of backlog.
func (g *NESGUI) queueAudio() {
	if g.audioDevice == 0 {
		return
	}

	samples := g.machine.TakeSamples()
	if len(samples) == 0 {
		return
	}

	queuedBytes := sdl.GetQueuedAudioSize(g.audioDevice)
	maxBytes := uint32(AudioBufferSize * 4 * 2)
	if queuedBytes >= maxBytes {
		return
	}

	var audioData []byte
	switch g.audioSpec.Format {
	case sdl.AUDIO_F32LSB:
		audioData = make([]byte, len(samples)*4)
		for i, sample := range samples {
			f := float32(sample)
			bits := *(*uint32)(unsafe.Pointer(&f))
			audioData[i*4+0] = byte(bits)
			audioData[i*4+1] = byte(bits >> 8)
			audioData[i*4+2] = byte(bits >> 16)
			audioData[i*4+3] = byte(bits >> 24)
		}
	case sdl.AUDIO_S16LSB:
		audioData = make([]byte, len(samples)*2)
		for i, sample := range samples {
			if sample > 1.0 {
				sample = 1.0
			} else if sample < -1.0 {
				sample = -1.0
			}
			intSample := int16(sample * 32767)
			audioData[i*2+0] = byte(intSample)
			audioData[i*2+1] = byte(intSample >> 8)
		}
	}

	if len(audioData) > 0 {
		sdl.QueueAudio(g.audioDevice, audioData)
	}
}

func (g *NESGUI) updateFPS() {
	g.fpsCounter++
	elapsed := time.Since(g.fpsTimer)
	if elapsed >= 500*time.Millisecond {
		g.currentFPS = float64(g.fpsCounter) / elapsed.Seconds()
		g.fpsCounter = 0
		g.fpsTimer = time.Now()
	}
}

func (g *NESGUI) updateWindowTitle() {
	g.window.SetTitle(fmt.Sprintf("%s - FPS: %.1f", WindowTitle, g.currentFPS))
}
