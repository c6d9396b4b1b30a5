package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

// rtcSaveSize is the RTC trailer of a save file: live and latched registers
// followed by a little endian unix timestamp.
const rtcSaveSize = 2*rtcRegisters + 8

// SaveData serializes the battery backed state: external RAM, then the RTC
// trailer for cartridges with a clock.
func (m *MBC) SaveData() []uint8 {
	out := m.RAMDump()
	if m.rtc == nil {
		return out
	}
	m.rtc.sync()
	out = append(out, m.rtc.live[:]...)
	out = append(out, m.rtc.latched[:]...)
	return binary.LittleEndian.AppendUint64(out, uint64(m.rtc.synced))
}

// LoadSaveData restores state written by SaveData. The RTC is fast forwarded
// by the wall time elapsed since the save was written.
func (m *MBC) LoadSaveData(data []uint8) error {
	want := len(m.ram)
	if m.rtc != nil {
		want += rtcSaveSize
	}
	if len(data) < len(m.ram) {
		return fmt.Errorf("memory: save data is %d bytes, cartridge RAM is %d", len(data), len(m.ram))
	}
	if len(data) != want {
		slog.Warn("save data size mismatch", "want", want, "got", len(data))
	}

	copy(m.ram, data[:len(m.ram)])

	trailer := data[len(m.ram):]
	if m.rtc == nil || len(trailer) < rtcSaveSize {
		return nil
	}
	copy(m.rtc.live[:], trailer[:rtcRegisters])
	copy(m.rtc.latched[:], trailer[rtcRegisters:2*rtcRegisters])
	m.rtc.synced = int64(binary.LittleEndian.Uint64(trailer[2*rtcRegisters:]))
	m.rtc.sync()
	return nil
}

// LoadSave reads a save file into the controller. A missing file leaves the
// RAM fresh and is not an error.
func LoadSave(path string, m *MBC) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("no save file, starting with fresh RAM", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("memory: reading save file: %w", err)
	}
	if err := m.LoadSaveData(data); err != nil {
		return fmt.Errorf("memory: loading %s: %w", path, err)
	}
	slog.Info("loaded save file", "path", path, "bytes", len(data))
	return nil
}

// WriteSave writes the controller's battery backed state to path.
func WriteSave(path string, m *MBC) error {
	data := m.SaveData()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("memory: writing save file: %w", err)
	}
	slog.Info("wrote save file", "path", path, "bytes", len(data))
	return nil
}
