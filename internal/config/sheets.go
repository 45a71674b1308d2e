package config

import (
	"github.com/Veraticus/leadflow/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig builds the Sheets export settings. Values under the
// sheets.* keys win; GOOGLE_SHEETS_* variables fill whatever is left.
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	c := sheets.DefaultConfig()

	c.ServiceAccountPath = ExpandPath(v.GetString("sheets.service_account_path"))
	c.ClientID = v.GetString("sheets.client_id")
	c.ClientSecret = v.GetString("sheets.client_secret")
	c.RefreshToken = v.GetString("sheets.refresh_token")
	c.SpreadsheetID = v.GetString("sheets.spreadsheet_id")
	c.SpreadsheetName = v.GetString("sheets.spreadsheet_name")
	if tz := v.GetString("sheets.time_zone"); tz != "" {
		c.TimeZone = tz
	}

	c.LoadFromEnv()
	c.ServiceAccountPath = ExpandPath(c.ServiceAccountPath)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
