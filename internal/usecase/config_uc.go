package usecase

import "mollie-gateway/internal/domain/model"

// DefaultTransactionDescription is used when the merchant leaves the template empty.
const DefaultTransactionDescription = "Your company name - Invoice #" + model.InvoiceIDPlaceholder

const mollieProfilesURL = "https://www.mollie.com/dashboard/developers/api-keys"

// ConfigUseCase returns the settings the merchant fills in for the module.
type ConfigUseCase interface {
	Fields() []model.ConfigField
}

var _ ConfigUseCase = (*configUC)(nil)

type configUC struct{}

func NewConfigUseCase() ConfigUseCase { return configUC{} }

// Fields returns a fresh copy on every call; the order is the display order.
func (configUC) Fields() []model.ConfigField {
	return []model.ConfigField{
		{
			Key:   model.SettingFriendlyName,
			Type:  model.FieldTypeSystem,
			Value: model.ModuleName,
		},
		{
			Key:          model.SettingTransactionDescription,
			FriendlyName: "Transaction description",
			Type:         model.FieldTypeText,
			Size:         50,
			Value:        DefaultTransactionDescription,
			Description:  "Example configuration: '" + DefaultTransactionDescription + "'",
		},
		{
			Key:          model.SettingLiveAPIKey,
			FriendlyName: "Mollie Live API Key",
			Type:         model.FieldTypeText,
			Size:         50,
			Description:  "Go to <a href='" + mollieProfilesURL + "' target='_blank'>Mollie</a> to obtain your Live API key.",
		},
		{
			Key:          model.SettingTestAPIKey,
			FriendlyName: "Mollie Test API Key",
			Type:         model.FieldTypeText,
			Size:         50,
			Description:  "Not required. Go to <a href='" + mollieProfilesURL + "' target='_blank'>Mollie</a> to obtain your Test API key.",
		},
		{
			Key:          model.SettingTestMode,
			FriendlyName: "Test Mode",
			Type:         model.FieldTypeYesNo,
			Description:  "Tick this to use the test gateway of Mollie.",
		},
	}
}
