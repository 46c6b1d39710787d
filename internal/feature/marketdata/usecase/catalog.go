package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"fxchart_backend/internal/feature/marketdata/domain"
	"fxchart_backend/internal/feature/marketdata/domain/entity"
)

// CategoryAll を指定するとSearchはカテゴリで絞り込みません。
const CategoryAll = "all"

// CatalogSource はアカウント一覧と、アカウントごとの取引可能銘柄を取得します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CatalogSource interface {
	Accounts(ctx context.Context) ([]entity.Account, error)
	Instruments(ctx context.Context, accountID string) ([]entity.Instrument, error)
}

// InstrumentCatalog は使用中のアカウントの銘柄名→Instrumentの対応表です。
// 構築後は読み取り専用のため、ロックは不要です。
type InstrumentCatalog struct {
	accountID string
	byName    map[string]entity.Instrument
	order     []string // APIの並び順
}

// SelectAccount はカタログの元になるアカウントを選びます。
//
// APIが返した最初のアカウントを使用します。複数アカウントを持つAPIキーでも
// そのアカウントのみを対象とし、別のアカウントを選ぶ設定はありません。
func SelectAccount(accounts []entity.Account) (entity.Account, error) {
	if len(accounts) == 0 {
		return entity.Account{}, &domain.ProviderError{StatusCode: http.StatusOK, Err: domain.ErrNoAccounts}
	}
	return accounts[0], nil
}

// NewInstrumentCatalog はアカウントを決定し、その銘柄一覧からカタログを構築します。
// いずれかの取得に失敗した場合はエラーを返します。カタログなしでリクエストを処理してはいけません。
func NewInstrumentCatalog(ctx context.Context, src CatalogSource, logger *zap.Logger) (*InstrumentCatalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	accounts, err := src.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	account, err := SelectAccount(accounts)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}

	instruments, err := src.Instruments(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("list instruments for account %s: %w", account.ID, err)
	}

	c := NewInstrumentCatalogFromList(account.ID, instruments)
	logger.Info("instrument catalog loaded",
		zap.String("account_id", account.ID),
		zap.Int("accounts", len(accounts)),
		zap.Int("instruments", c.Len()),
	)
	return c, nil
}

// NewInstrumentCatalogFromList は取得済みの銘柄一覧からカタログを構築します。
// 同名の銘柄は後のレコードで上書きし、並び順は最初の位置を保ちます。
func NewInstrumentCatalogFromList(accountID string, instruments []entity.Instrument) *InstrumentCatalog {
	c := &InstrumentCatalog{
		accountID: accountID,
		byName:    make(map[string]entity.Instrument, len(instruments)),
		order:     make([]string, 0, len(instruments)),
	}
	for _, inst := range instruments {
		if _, seen := c.byName[inst.Name]; !seen {
			c.order = append(c.order, inst.Name)
		}
		c.byName[inst.Name] = inst
	}
	return c
}

// Search はqueryを含む銘柄名（大文字小文字を区別）のうち、種別にcategoryを含むもの
// （大文字小文字を区別しない）を返します。"all"はすべての種別に一致します。結果はAPIの並び順です。
func (c *InstrumentCatalog) Search(query, category string) []string {
	filter := category != CategoryAll
	lowerCategory := strings.ToLower(category)

	results := make([]string, 0)
	for _, name := range c.order {
		if !strings.Contains(name, query) {
			continue
		}
		if filter && !strings.Contains(strings.ToLower(c.byName[name].Type), lowerCategory) {
			continue
		}
		results = append(results, name)
	}
	return results
}

// Lookup はnameで登録された銘柄を返します。
func (c *InstrumentCatalog) Lookup(name string) (entity.Instrument, bool) {
	inst, ok := c.byName[name]
	return inst, ok
}

// Len はカタログの銘柄数を返します。
func (c *InstrumentCatalog) Len() int {
	return len(c.order)
}

// AccountID はカタログ構築に使用したアカウントIDを返します。
func (c *InstrumentCatalog) AccountID() string {
	return c.accountID
}
