package scraper

import "time"

func days(now time.Time, n int) *time.Time {
	d := now.AddDate(0, 0, n)
	return &d
}

func str(s string) *string { return &s }

func nigeriaSample(now time.Time) []RawTender {
	return []RawTender{
		{
			Title:        "Digital Infrastructure Development for Lagos State",
			Description:  "The Lagos State Government is seeking proposals for the development of digital infrastructure including fiber optic networks, data centers, and smart city solutions. This project aims to transform Lagos into a digital hub and improve government service delivery.",
			Organization: "Lagos State Ministry of Science and Technology",
			Country:      "Nigeria",
			Category:     "Technology",
			Status:       "Open",
			DeadlineAt:   days(now, 30),
			Budget:       str("2500000"),
			Currency:     "USD",
			Requirements: []string{
				"Minimum 10 years experience in digital infrastructure",
				"Experience with smart city projects",
				"Strong financial capacity",
				"Local partnership requirements",
			},
			ContactEmail: "procurement@lagos.gov.ng",
			ContactPhone: "+234-1-234-5678",
			Website:      "https://lagos.gov.ng",
		},
		{
			Title:        "Agricultural Processing Plant Construction",
			Description:  "The Federal Ministry of Agriculture is inviting bids for the construction of a modern agricultural processing plant in Kano State. The facility will process rice, maize, and other staple crops to improve food security and create employment opportunities.",
			Organization: "Federal Ministry of Agriculture and Rural Development",
			Country:      "Nigeria",
			Category:     "Agriculture",
			Status:       "Open",
			DeadlineAt:   days(now, 45),
			Budget:       str("1500000"),
			Currency:     "USD",
			Requirements: []string{
				"Experience in agricultural facility construction",
				"ISO 9001 certification",
				"Minimum 5 years operational history",
				"Local content compliance",
			},
			ContactEmail: "procurement@agriculture.gov.ng",
			ContactPhone: "+234-9-876-5432",
			Website:      "https://agriculture.gov.ng",
		},
		{
			Title:        "Healthcare Equipment Supply and Installation",
			Description:  "The Ministry of Health is seeking suppliers for medical equipment including MRI machines, CT scanners, and laboratory equipment for tertiary hospitals across Nigeria. The project includes installation, training, and maintenance services.",
			Organization: "Federal Ministry of Health",
			Country:      "Nigeria",
			Category:     "Healthcare",
			Status:       "Open",
			DeadlineAt:   days(now, 60),
			Budget:       str("800000"),
			Currency:     "USD",
			Requirements: []string{
				"Certified medical equipment supplier",
				"FDA/CE certification for equipment",
				"Technical support capabilities",
				"Warranty and maintenance services",
			},
			ContactEmail: "procurement@health.gov.ng",
			ContactPhone: "+234-2-345-6789",
			Website:      "https://health.gov.ng",
		},
		{
			Title:        "Renewable Energy Project Development",
			Description:  "The Nigerian Electricity Regulatory Commission is inviting proposals for renewable energy projects including solar farms, wind energy, and hydroelectric power plants. The goal is to increase renewable energy capacity by 500MW.",
			Organization: "Nigerian Electricity Regulatory Commission",
			Country:      "Nigeria",
			Category:     "Energy",
			Status:       "Open",
			DeadlineAt:   days(now, 90),
			Budget:       str("5000000"),
			Currency:     "USD",
			Requirements: []string{
				"Proven track record in renewable energy",
				"Financial capacity for large-scale projects",
				"Environmental impact assessment",
				"Grid connection expertise",
			},
			ContactEmail: "procurement@nerc.gov.ng",
			ContactPhone: "+234-3-456-7890",
			Website:      "https://nerc.gov.ng",
		},
		{
			Title:        "Educational Technology Platform Development",
			Description:  "The Ministry of Education is seeking developers to create a comprehensive online learning platform for Nigerian universities and polytechnics. The platform should support virtual classrooms, assessment tools, and student management systems.",
			Organization: "Federal Ministry of Education",
			Country:      "Nigeria",
			Category:     "Education",
			Status:       "Open",
			DeadlineAt:   days(now, 40),
			Budget:       str("1200000"),
			Currency:     "USD",
			Requirements: []string{
				"Experience with e-learning platforms",
				"Scalable architecture design",
				"Mobile app development",
				"Integration with existing systems",
			},
			ContactEmail: "procurement@education.gov.ng",
			ContactPhone: "+234-4-567-8901",
			Website:      "https://education.gov.ng",
		},
	}
}

func kenyaSample(now time.Time) []RawTender {
	return []RawTender{
		{
			Title:        "Mombasa Port Infrastructure Upgrade",
			Description:  "The Kenya Ports Authority is seeking contractors for the upgrade of Mombasa port infrastructure including new berths, container handling equipment, and digital systems.",
			Organization: "Kenya Ports Authority",
			Country:      "Kenya",
			Category:     "Infrastructure",
			Status:       "Open",
			DeadlineAt:   days(now, 60),
			Budget:       str("3000000"),
			Currency:     "USD",
			Requirements: []string{
				"Port infrastructure experience",
				"International certification",
				"Financial capacity",
				"Local partnership",
			},
			ContactEmail: "procurement@kpa.co.ke",
			ContactPhone: "+254-20-123-4567",
			Website:      "https://kpa.co.ke",
		},
		{
			Title:        "Digital Financial Services Platform",
			Description:  "The Central Bank of Kenya is inviting proposals for a digital financial services platform to enhance financial inclusion and mobile money services.",
			Organization: "Central Bank of Kenya",
			Country:      "Kenya",
			Category:     "Technology",
			Status:       "Open",
			DeadlineAt:   days(now, 45),
			Budget:       str("1800000"),
			Currency:     "USD",
			Requirements: []string{
				"Fintech platform experience",
				"Regulatory compliance",
				"Security certifications",
				"Scalable architecture",
			},
			ContactEmail: "procurement@centralbank.go.ke",
			ContactPhone: "+254-20-234-5678",
			Website:      "https://centralbank.go.ke",
		},
	}
}

func ghanaSample(now time.Time) []RawTender {
	return []RawTender{
		{
			Title:        "Accra Smart City Development Project",
			Description:  "The Accra Metropolitan Assembly is seeking proposals for smart city development including traffic management, waste management, and digital services.",
			Organization: "Accra Metropolitan Assembly",
			Country:      "Ghana",
			Category:     "Technology",
			Status:       "Open",
			DeadlineAt:   days(now, 75),
			Budget:       str("2200000"),
			Currency:     "USD",
			Requirements: []string{
				"Smart city project experience",
				"IoT and sensor technology",
				"Urban planning expertise",
				"Local content requirements",
			},
			ContactEmail: "procurement@ama.gov.gh",
			ContactPhone: "+233-30-123-4567",
			Website:      "https://ama.gov.gh",
		},
		{
			Title:        "Cocoa Processing Facility Modernization",
			Description:  "The Ghana Cocoa Board is inviting bids for the modernization of cocoa processing facilities to increase production capacity and improve quality.",
			Organization: "Ghana Cocoa Board",
			Country:      "Ghana",
			Category:     "Agriculture",
			Status:       "Open",
			DeadlineAt:   days(now, 50),
			Budget:       str("900000"),
			Currency:     "USD",
			Requirements: []string{
				"Cocoa processing experience",
				"Food safety certifications",
				"Equipment supply capability",
				"Training and maintenance",
			},
			ContactEmail: "procurement@cocobod.com.gh",
			ContactPhone: "+233-30-234-5678",
			Website:      "https://cocobod.com.gh",
		},
	}
}
