// Package scraper turns fetched daily-data report pages into climate
// records: it builds the portal URLs and extracts the report tables.
package scraper

import "fmt"

// dailyDataBaseURL is the climate portal's daily data report endpoint. The
// four query parameters select one station-month of observations.
const dailyDataBaseURL = "https://climate.weather.gc.ca/climate_data/daily_data_e.html"

// DailyDataURL builds the source URL for one station's daily report month.
// The caller guarantees month is in [1, 12]; no validation happens here.
func DailyDataURL(stationID int64, provinceCode string, year, month int) string {
	return fmt.Sprintf("%s?StationID=%d&Prov=%s&Month=%d&Year=%d",
		dailyDataBaseURL, stationID, provinceCode, month, year)
}
