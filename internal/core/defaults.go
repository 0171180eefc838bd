package core

// Seed lists used when the configuration document does not exist yet.
var (
	DefaultExpenseCategories = []string{
		"Loyer",
		"Courses",
		"Essence",
		"Forfait Internet",
		"Forfait Mobile",
		"Crédit Voiture",
		"Crédit Consommation",
		"Énergie (chauffage + élec)",
		"Eau",
		"Assurance Maison",
		"Assurance Voiture",
		"Frais Voiture",
		"Santé",
		"Loisirs",
		"Anniversaires et fêtes",
		"École",
		"Épargne",
		OtherEntry,
	}

	DefaultIncomeSources = []string{
		"Salaire Principal",
		"Salaire Conjoint",
		"Primes",
		"Revenus Complémentaires",
		OtherEntry,
	}
)

const DefaultFamilyName = "Ma famille"
