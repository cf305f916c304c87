package recommendation

type ClientInfo struct {
	CustomerType         string  `json:"tipo_cliente"`
	TotalServices        int     `json:"total_servicos_cliente"`
	TotalSpent           float64 `json:"valor_total_gasto"`
	DaysSinceLastService int     `json:"dias_desde_ultimo_servico"`
	DistinctServicesUsed int     `json:"servicos_unicos_utilizados"`
}

type VehicleInfo struct {
	Year       int    `json:"ano_veiculo"`
	Type       string `json:"tipo_veiculo"`
	VehicleAge int    `json:"idade_veiculo"`
}

type PredictRequest struct {
	ClientInfo    ClientInfo     `json:"client_info"`
	VehicleInfo   VehicleInfo    `json:"vehicle_info"`
	HistoryCounts map[string]int `json:"history_counts"`
}

type Prediction struct {
	Probabilities  map[string]float64 `json:"probabilities"`
	TopService     string             `json:"top_service"`
	Confidence     float64            `json:"confidence"`
	ModelAvailable bool               `json:"model_available"`
}
