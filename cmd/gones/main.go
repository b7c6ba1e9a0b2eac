package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/eightbitcore/nes/pkg/cartridge"
	"github.com/eightbitcore/nes/pkg/console"
	"github.com/eightbitcore/nes/pkg/gui"
	"github.com/eightbitcore/nes/pkg/logger"
)

func main() {
	var (
		logLevel   = flag.String("log-level", "info", "Log level (off, error, warn, info, debug, trace)")
		logFile    = flag.String("log-file", "", "Log file path (empty for stdout)")
		cpuLog     = flag.Bool("cpu-log", false, "Enable CPU instruction logging")
		ppuLog     = flag.Bool("ppu-log", false, "Enable PPU logging")
		apuLog     = flag.Bool("apu-log", false, "Enable APU logging")
		mapperLog  = flag.Bool("mapper-log", false, "Enable mapper logging")
		headless   = flag.Bool("headless", false, "Run in headless mode for testing")
		testFrames = flag.Int("test-frames", 600, "Number of frames to run in headless mode")
	)

	flag.Usage = func() {
		fmt.Printf("Usage: %s [options] <rom_file>\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println("\nControls:")
		fmt.Println("  Z - A button")
		fmt.Println("  X - B button")
		fmt.Println("  A - Select")
		fmt.Println("  S - Start")
		fmt.Println("  Arrow keys - D-pad")
		fmt.Println("  ESC - Quit")
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	romFile := flag.Arg(0)

	level := logger.GetLogLevelFromString(*logLevel)
	if err := logger.Initialize(level, *logFile); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.SetCPULogging(*cpuLog)
	logger.SetPPULogging(*ppuLog)
	logger.SetAPULogging(*apuLog)
	logger.SetMapperLogging(*mapperLog)

	logger.LogInfo("emulator starting")
	logger.LogInfo("log level: %s", *logLevel)
	if *logFile != "" {
		logger.LogInfo("logging to file: %s", *logFile)
	}

	file, err := os.Open(romFile)
	if err != nil {
		log.Fatalf("failed to open ROM file: %v", err)
	}
	defer file.Close()

	cart, err := cartridge.Load(file)
	if err != nil {
		log.Fatalf("failed to load ROM: %v", err)
	}

	logger.LogInfo("loaded ROM: %s", filepath.Base(romFile))
	logger.LogInfo("mapper: %d", cart.Header.Mapper)
	logger.LogInfo("PRG ROM: %d KB", len(cart.PRGROM)/1024)
	if len(cart.CHRROM) > 0 {
		logger.LogInfo("CHR ROM: %d KB", len(cart.CHRROM)/1024)
	} else {
		logger.LogInfo("CHR RAM: %d KB", len(cart.CHRRAM)/1024)
	}

	machine := console.New(cart)

	if *headless {
		runHeadless(machine, *testFrames)
		return
	}

	nesGUI, err := gui.NewNESGUI(machine)
	if err != nil {
		log.Fatalf("failed to create GUI: %v", err)
	}
	defer nesGUI.Destroy()

	logger.LogInfo("starting emulator")
	nesGUI.Run()
	logger.LogInfo("emulator stopped")
}

func runHeadless(machine *console.Machine, maxFrames int) {
	logger.LogInfo("starting headless mode for %d frames", maxFrames)
	startTime := time.Now()

	frames := 0
	for frames < maxFrames {
		machine.Tick()
		if _, ok := machine.TakeFrame(); ok {
			frames++
		}
	}

	logger.LogInfo("headless execution completed in %v", time.Since(startTime))
}
