package main

import (
	"fmt"
	"log"
	"os"

	"github.com/eightbitcore/nes/pkg/cartridge"
	"github.com/eightbitcore/nes/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: rom_analyzer <rom_file>")
		os.Exit(1)
	}
	romFile := os.Args[1]

	file, err := os.Open(romFile)
	if err != nil {
		log.Fatalf("failed to open ROM file: %v", err)
	}
	defer file.Close()

	cart, err := cartridge.Load(file)
	if err != nil {
		log.Fatalf("failed to load ROM: %v", err)
	}

	logger.LogInfo("=== ROM Analysis ===\n")
	logger.LogInfo("File: %s\n", romFile)

	logger.LogInfo("\n=== Header Information ===\n")
	logger.LogInfo("PRG ROM Size: %d units (%d KB)\n", cart.Header.PRGROMSize, int(cart.Header.PRGROMSize)*16)
	logger.LogInfo("CHR ROM Size: %d units (%d KB)\n", cart.Header.CHRROMSize, int(cart.Header.CHRROMSize)*8)
	logger.LogInfo("Mapper Number: %d\n", cart.Header.Mapper)
	logger.LogInfo("Battery Backed: %v\n", cart.Header.Battery)
	logger.LogInfo("Trainer Present: %v\n", cart.Header.Trainer)

	logger.LogInfo("\n=== Mirroring ===\n")
	switch cart.Header.Mirroring {
	case 1:
		logger.LogInfo("Mirroring: Vertical\n")
	default:
		logger.LogInfo("Mirroring: Horizontal\n")
	}

	logger.LogInfo("\n=== Memory Configuration ===\n")
	logger.LogInfo("PRG ROM: %d bytes (0x%04X)\n", len(cart.PRGROM), len(cart.PRGROM))
	if len(cart.CHRROM) > 0 {
		logger.LogInfo("CHR ROM: %d bytes (0x%04X)\n", len(cart.CHRROM), len(cart.CHRROM))
	}
	if len(cart.CHRRAM) > 0 {
		logger.LogInfo("CHR RAM: %d bytes (0x%04X)\n", len(cart.CHRRAM), len(cart.CHRRAM))
	}
	if len(cart.PRGRAM) > 0 {
		logger.LogInfo("PRG RAM: %d bytes (0x%04X)\n", len(cart.PRGRAM), len(cart.PRGRAM))
	}

	logger.LogInfo("\n=== Header Summary ===\n")
	logger.LogInfo("PRGROMSize=%d CHRROMSize=%d Mapper=%d Battery=%v Trainer=%v Mirroring=%v\n",
		cart.Header.PRGROMSize, cart.Header.CHRROMSize, cart.Header.Mapper,
		cart.Header.Battery, cart.Header.Trainer, cart.Header.Mirroring)
}
