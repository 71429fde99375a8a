// Package banks is the directory of banks known to issue CNAB files.
package banks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Bank is a COMPE-coded financial institution.
type Bank struct {
	Code      string
	Name      string
	ShortName string
	Formats   []string
}

// Supports reports whether the bank issues files in format.
func (b Bank) Supports(format string) bool {
	for _, f := range b.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Service provides lookup by bank code.
type Service struct {
	banks  []Bank
	byCode map[string]Bank
}

// NewService creates a Service from a slice of banks.
func NewService(banks []Bank) *Service {
	byCode := make(map[string]Bank, len(banks))
	for _, b := range banks {
		byCode[b.Code] = b
	}
	return &Service{banks: banks, byCode: byCode}
}

// DefaultService wraps Default.
func DefaultService() *Service { return NewService(Default()) }

// Load reads a banks CSV file and returns a Service.
func Load(path string) (*Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening banks file: %w", err)
	}
	defer f.Close()

	banks, err := ReadBanks(f)
	if err != nil {
		return nil, fmt.Errorf("reading banks file: %w", err)
	}
	return NewService(banks), nil
}

// LoadOrDefault reads path when it exists and falls back to the built-in list.
func LoadOrDefault(path string) (*Service, error) {
	if path == "" {
		return DefaultService(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultService(), nil
	}
	return Load(path)
}

// All returns all banks sorted by code.
func (s *Service) All() []Bank {
	out := make([]Bank, len(s.banks))
	copy(out, s.banks)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Get returns a bank by code.
func (s *Service) Get(code string) (Bank, bool) {
	b, ok := s.byCode[code]
	return b, ok
}

// Known reports whether code is in the directory.
func (s *Service) Known(code string) bool {
	_, ok := s.byCode[code]
	return ok
}

// Name returns the bank's short name, or "" for unknown codes.
func (s *Service) Name(code string) string {
	return s.byCode[code].ShortName
}

// Save writes the directory to path, creating parent directories.
func (s *Service) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating banks dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating banks file: %w", err)
	}
	defer f.Close()

	if err := WriteBanks(f, s.All()); err != nil {
		return fmt.Errorf("writing banks file: %w", err)
	}
	return nil
}
