package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/eightbitcore/nes/pkg/cartridge"
	"github.com/eightbitcore/nes/pkg/console"
	"github.com/eightbitcore/nes/pkg/logger"
	"github.com/eightbitcore/nes/pkg/ppu"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: headless_debug <rom_file> [frames]")
		os.Exit(1)
	}

	romFile := os.Args[1]
	maxFrames := 10
	if len(os.Args) >= 3 {
		fmt.Sscanf(os.Args[2], "%d", &maxFrames)
	}

	if err := logger.Initialize(logger.LogLevelDebug, ""); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Close()

	file, err := os.Open(romFile)
	if err != nil {
		log.Fatalf("failed to open ROM file: %v", err)
	}
	defer file.Close()

	cart, err := cartridge.Load(file)
	if err != nil {
		log.Fatalf("failed to load ROM: %v", err)
	}

	logger.LogInfo("=== Headless Debug Mode ===\n")
	logger.LogInfo("ROM: %s\n", romFile)
	logger.LogInfo("Mapper: %d\n", cart.Header.Mapper)
	logger.LogInfo("Max frames to run: %d\n", maxFrames)

	machine := console.New(cart)

	logger.LogInfo("=== Initial State ===\n")
	logger.LogInfo("Frame: %d\n", machine.PPU.Frame)

	logger.LogInfo("=== Starting Emulation ===\n")
	startTime := time.Now()

	var lastFrame ppu.Frame
	for i := 0; i < maxFrames; i++ {
		frameStart := time.Now()

		for {
			machine.Tick()
			if f, ok := machine.TakeFrame(); ok {
				lastFrame = f
				break
			}
		}

		logger.LogInfo("Frame %d completed in %v\n", machine.PPU.Frame, time.Since(frameStart))

		if i == 0 {
			printPPUState(machine)
		}

		nonBgPixels, distinctColors := analyzeFrame(lastFrame)
		logger.LogInfo("  Non-background pixels: %d, distinct colors: %d\n", nonBgPixels, distinctColors)

		if i == maxFrames-1 {
			logger.LogInfo("  Saving final framebuffer...\n")
			saveFrame(lastFrame, fmt.Sprintf("debug_frame_%d.raw", machine.PPU.Frame))
		}
	}

	totalTime := time.Since(startTime)
	logger.LogInfo("=== Final Results ===\n")
	logger.LogInfo("Completed %d frames in %v\n", machine.PPU.Frame, totalTime)
	logger.LogInfo("Average frame time: %v\n", totalTime/time.Duration(maxFrames))
}

func printPPUState(machine *console.Machine) {
	logger.LogInfo("  PGU State:\n")
	logger.LogInfo("    Frame: %d, Scanline: %d, Cycle: %d\n",
		machine.PPU.Frame, machine.PPU.Scanline, machine.PPU.Cycle)
	logger.LogInfo("    NMI Requested: %v\n", machine.PPU.NMIRequested)
}

func analyzeFrame(frame ppu.Frame) (nonBgPixels, distinctColors int) {
	seen := make(map[ppu.RGB]int)
	bg := frame[0][0]
	for row := 0; row < 240; row++ {
		for col := 0; col < 256; col++ {
			c := frame[row][col]
			seen[c]++
			if c != bg {
				nonBgPixels++
			}
		}
	}
	return nonBgPixels, len(seen)
}

func saveFrame(frame ppu.Frame, filename string) {
	file, err := os.Create(filename)
	if err != nil {
		logger.LogError("error creating framebuffer file: %v\n", err)
		return
	}
	defer file.Close()

	buf := make([]byte, 0, 240*256*3)
	for row := 0; row < 240; row++ {
		for col := 0; col < 256; col++ {
			c := frame[row][col]
			buf = append(buf, c.R, c.G, c.B)
		}
	}
	if _, err := file.Write(buf); err != nil {
		logger.LogError("error writing framebuffer: %v\n", err)
		return
	}
	logger.LogInfo("  framebuffer saved to %s (%d bytes)\n", filename, len(buf))
}
