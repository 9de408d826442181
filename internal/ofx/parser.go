// Package ofx reads brokerage OFX/QFX investment statements into holding records.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/holdscan/internal/model"
	"github.com/aclindsa/ofxgo"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser implements OFX/QFX position parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	// Trim any leading whitespace or blank lines before the header
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Close SGML opening tags left without their bracket at end of line
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func (p *Parser) parse(ctx context.Context, reader io.Reader) (*ofxgo.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file and returns one record per investment position.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Record, error) {
	resp, err := p.parse(ctx, reader)
	if err != nil {
		return nil, err
	}
	return p.Positions(resp), nil
}

// Positions converts every position of every investment statement in resp. Securities are
// named from the response's security list.
func (p *Parser) Positions(resp *ofxgo.Response) []model.Record {
	securities := securityIndex(resp)

	var records []model.Record
	var statements int
	for _, msg := range resp.InvStmt {
		stmt, ok := msg.(*ofxgo.InvStatementResponse)
		if !ok {
			continue
		}
		statements++
		for _, pos := range stmt.InvPosList {
			inv, ok := invPosition(pos)
			if !ok {
				slog.Warn("Skipping unsupported position type",
					"account", stmt.InvAcctFrom.AcctID,
					"type", pos.PositionType())
				continue
			}
			records = append(records, convertPosition(inv, securities))
		}
	}

	slog.Info("Parsed OFX file",
		"total_positions", len(records),
		"investment_statements", statements,
		"securities", len(securities))

	return records
}

// convertPosition converts an OFX position to our model.
func convertPosition(inv ofxgo.InvPosition, securities map[string]ofxgo.SecInfo) model.Record {
	id := string(inv.SecID.UniqueID)
	rec := model.Record{
		Name:       id,
		Code:       id,
		SourceType: model.ChannelOFX,
	}
	if info, ok := securities[id]; ok {
		if info.SecName != "" {
			rec.Name = string(info.SecName)
		}
		if info.Ticker != "" {
			rec.Code = string(info.Ticker)
		}
	}

	// Amounts are big.Rat values
	units, _ := inv.Units.Float64()
	price, _ := inv.UnitPrice.Float64()
	value, _ := inv.MktVal.Float64()
	rec.Quantity = model.Float(units)
	rec.CurrentPrice = model.Float(price)
	rec.MarketValue = model.Float(value)

	return rec
}

func invPosition(pos ofxgo.Position) (ofxgo.InvPosition, bool) {
	switch p := pos.(type) {
	case ofxgo.StockPosition:
		return p.InvPos, true
	case *ofxgo.StockPosition:
		return p.InvPos, true
	case ofxgo.MFPosition:
		return p.InvPos, true
	case *ofxgo.MFPosition:
		return p.InvPos, true
	case ofxgo.DebtPosition:
		return p.InvPos, true
	case *ofxgo.DebtPosition:
		return p.InvPos, true
	case ofxgo.OptPosition:
		return p.InvPos, true
	case *ofxgo.OptPosition:
		return p.InvPos, true
	case ofxgo.OtherPosition:
		return p.InvPos, true
	case *ofxgo.OtherPosition:
		return p.InvPos, true
	}
	return ofxgo.InvPosition{}, false
}

// securityIndex maps security unique IDs to their descriptions.
func securityIndex(resp *ofxgo.Response) map[string]ofxgo.SecInfo {
	index := map[string]ofxgo.SecInfo{}
	for _, msg := range resp.SecList {
		list, ok := msg.(*ofxgo.SecurityList)
		if !ok {
			continue
		}
		for _, sec := range list.Securities {
			if info, ok := secInfo(sec); ok {
				index[string(info.SecID.UniqueID)] = info
			}
		}
	}
	return index
}

func secInfo(sec ofxgo.Security) (ofxgo.SecInfo, bool) {
	switch s := sec.(type) {
	case ofxgo.StockInfo:
		return s.SecInfo, true
	case *ofxgo.StockInfo:
		return s.SecInfo, true
	case ofxgo.MFInfo:
		return s.SecInfo, true
	case *ofxgo.MFInfo:
		return s.SecInfo, true
	case ofxgo.DebtInfo:
		return s.SecInfo, true
	case *ofxgo.DebtInfo:
		return s.SecInfo, true
	case ofxgo.OptInfo:
		return s.SecInfo, true
	case *ofxgo.OptInfo:
		return s.SecInfo, true
	case ofxgo.OtherInfo:
		return s.SecInfo, true
	case *ofxgo.OtherInfo:
		return s.SecInfo, true
	}
	return ofxgo.SecInfo{}, false
}

// GetAccounts extracts unique investment account IDs from the OFX file.
func (p *Parser) GetAccounts(ctx context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(ctx, reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var accounts []string
	for _, msg := range resp.InvStmt {
		if stmt, ok := msg.(*ofxgo.InvStatementResponse); ok {
			id := string(stmt.InvAcctFrom.AcctID)
			if id != "" && !seen[id] {
				seen[id] = true
				accounts = append(accounts, id)
			}
		}
	}
	return accounts, nil
}
