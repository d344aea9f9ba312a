// Package inventory fetches the federal station inventory, a CSV published
// on the national climate FTP server.
package inventory

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/couchcryptid/climate-scraper/internal/domain"
)

// Defaults for the public Environment and Climate Change Canada inventory.
// The account is a fixed read-only login with no password.
const (
	DefaultAddr = "ftp.tor.ec.gc.ca:21"
	DefaultUser = "client_climate"
	DefaultPath = "Pub/Get_More_Data_Plus_de_donnees/Station Inventory EN.csv"
)

// preambleLines is the number of banner lines the inventory file carries
// above its CSV header row.
const preambleLines = 3

// Inventory CSV column headers we consume.
const (
	headerName      = "Name"
	headerStationID = "Station ID"
	headerProvince  = "Province"
)

// Client downloads and decodes the station inventory over FTP. It
// implements station.InventoryLister.
type Client struct {
	addr     string
	user     string
	password string
	path     string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewClient creates an inventory client. Empty addr, user, or path fall
// back to the public inventory defaults.
func NewClient(addr, user, password, path string, timeout time.Duration, logger *slog.Logger) *Client {
	if addr == "" {
		addr = DefaultAddr
	}
	if user == "" {
		user = DefaultUser
	}
	if path == "" {
		path = DefaultPath
	}
	return &Client{
		addr:     addr,
		user:     user,
		password: password,
		path:     path,
		timeout:  timeout,
		logger:   logger,
	}
}

// ListStations retrieves the inventory file and decodes every station row.
// One connection per call; no retry.
func (c *Client) ListStations(ctx context.Context) ([]domain.StationDescriptor, error) {
	conn, err := ftp.Dial(c.addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(c.timeout))
	if err != nil {
		return nil, fmt.Errorf("dial inventory server %s: %w", c.addr, err)
	}
	defer func() {
		if err := conn.Quit(); err != nil {
			c.logger.Debug("ftp quit failed", "error", err)
		}
	}()

	if err := conn.Login(c.user, c.password); err != nil {
		return nil, fmt.Errorf("login as %s: %w", c.user, err)
	}

	resp, err := conn.Retr(c.path)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", c.path, err)
	}
	defer resp.Close()

	stations, err := DecodeInventory(resp)
	if err != nil {
		return nil, fmt.Errorf("decode station inventory: %w", err)
	}

	c.logger.Debug("station inventory fetched", "stations", len(stations))
	return stations, nil
}

// DecodeInventory parses the inventory CSV stream, skipping the preamble
// above the header row. Rows without a parseable station ID are dropped.
func DecodeInventory(r io.Reader) ([]domain.StationDescriptor, error) {
	// The preamble is free text, not CSV; consume it line by line before
	// handing the rest of the stream to the CSV reader.
	buffered := bufio.NewReader(r)
	for i := 0; i < preambleLines; i++ {
		if _, err := buffered.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("skip preamble line %d: %w", i+1, err)
		}
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}

	nameIdx, idIdx, provIdx := -1, -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case headerName:
			nameIdx = i
		case headerStationID:
			idIdx = i
		case headerProvince:
			provIdx = i
		}
	}
	if nameIdx < 0 || idIdx < 0 || provIdx < 0 {
		return nil, fmt.Errorf("header row missing required columns, got %v", header)
	}

	var stations []domain.StationDescriptor
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read inventory row: %w", err)
		}
		if len(row) <= nameIdx || len(row) <= idIdx || len(row) <= provIdx {
			continue
		}

		id, err := strconv.ParseInt(strings.TrimSpace(row[idIdx]), 10, 64)
		if err != nil {
			continue
		}

		stations = append(stations, domain.StationDescriptor{
			Name:      strings.TrimSpace(row[nameIdx]),
			StationID: id,
			Province:  strings.TrimSpace(row[provIdx]),
		})
	}
	return stations, nil
}
