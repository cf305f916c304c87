package recommendation

import (
	"time"

	"github.com/despasys/despasys_backend/models"
)

const (
	historyWindow          = 20
	noServiceDays          = 999
	defaultVehicleAge      = 5
	defaultVehicleYear     = 2020
	defaultVehicleType     = "AUTOMOVEL"
	customerTypeIndividual = "FISICO"
	customerTypeCompany    = "JURIDICO"
)

// BuildPredictRequest turns a customer's recent processes and first vehicle into model features.
// processes are expected newest first; only the first 20 count.
func BuildPredictRequest(customer *models.Customer, processes []*models.Process, vehicle *models.Vehicle, now time.Time) PredictRequest {
	if len(processes) > historyWindow {
		processes = processes[:historyWindow]
	}

	counts := make(map[string]int)
	var spent float64
	var last *time.Time
	for _, p := range processes {
		service := string(p.ServiceType)
		if service == "" {
			service = "OUTROS"
		}
		counts[service]++
		spent += p.TotalValue.InexactFloat64()
		start := p.StartDate
		if last == nil || start.After(*last) {
			last = &start
		}
	}

	days := noServiceDays
	if last != nil {
		days = int(now.Sub(*last).Hours() / 24)
		if days < 0 {
			days = 0
		}
	}

	customerType := customerTypeIndividual
	if customer != nil && customer.CustomerType == models.CustomerTypeCompany {
		customerType = customerTypeCompany
	}

	vehicleInfo := VehicleInfo{Year: defaultVehicleYear, Type: defaultVehicleType, VehicleAge: defaultVehicleAge}
	if vehicle != nil && vehicle.Year > 0 {
		vehicleInfo.Year = vehicle.Year
		vehicleInfo.VehicleAge = now.Year() - vehicle.Year
	}

	return PredictRequest{
		ClientInfo: ClientInfo{
			CustomerType:         customerType,
			TotalServices:        len(processes),
			TotalSpent:           spent,
			DaysSinceLastService: days,
			DistinctServicesUsed: len(counts),
		},
		VehicleInfo:   vehicleInfo,
		HistoryCounts: counts,
	}
}
