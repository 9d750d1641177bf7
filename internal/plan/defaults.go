package plan

// Default returns the built-in seed plan used when a workspace holds none.
func Default() *Plan {
	p := &Plan{
		Title: "Surge Master Plan",
		Phases: []Phase{
			{
				ID:          "phase1",
				Title:       "Phase 1: Design for Manufacturing (DFM) and Design for Assembly (DFA)",
				Description: "Optimize your functional prototype for mass production",
				Tasks: []Task{
					seed("phase1-task1", "Review and Refine the Schematics",
						"Component selection, availability, cost-effectiveness, and second-source components for supply chain risk mitigation",
						"1-2 weeks", []string{"schematics", "components", "supply-chain"}),
					seed("phase1-task2", "Optimize the PCB Layout",
						"Ensure component footprints, trace widths, clearances, layer stack-up, test points, and fiducials are optimized for manufacturing",
						"2-3 weeks", []string{"pcb", "layout", "manufacturing"}, "phase1-task1"),
					seed("phase1-task3", "Mechanical Design Optimization",
						"Refine enclosure for injection molding, add draft angles, ribs, bosses, choose standard fasteners and connectors",
						"2-4 weeks", []string{"mechanical", "enclosure", "molding"}),
					seed("phase1-task4", "Create Bill of Materials (BOM)",
						"Consolidate detailed BOM with part numbers, manufacturers, descriptions, quantities, and cost analysis",
						"1 week", []string{"bom", "costing", "sourcing"}, "phase1-task1", "phase1-task2", "phase1-task3"),
					seed("phase1-task5", "DFM/DFA Review",
						"Schedule meeting with experienced hardware engineer or manufacturing consultant",
						"1 week", []string{"review", "consultation"}, "phase1-task4"),
				},
			},
			{
				ID:          "phase2",
				Title:       "Phase 2: Sourcing and Supply Chain Management",
				Description: "Build infrastructure to support production",
				Tasks: []Task{
					seed("phase2-task1", "Find and Vet Manufacturing Partner",
						"Research Contract Manufacturer (CM) or EMS provider, send RFI/RFQ, conduct site visits/audits",
						"2-4 weeks", []string{"manufacturing", "partner", "audit"}),
					seed("phase2-task2", "Develop Supply Chain Strategy",
						"Determine component sourcing approach (turnkey vs consigned), build vendor relationships",
						"2-3 weeks", []string{"supply-chain", "vendors", "sourcing"}, "phase2-task1"),
					seed("phase2-task3", "Contract Negotiation",
						"Finalize contract including payment terms, lead times, quality standards, and NRE costs",
						"1-2 weeks", []string{"contracts", "negotiation", "nre"}, "phase2-task2"),
				},
			},
			{
				ID:          "phase3",
				Title:       "Phase 3: Pre-Production and Tooling",
				Description: "Bridge between design and mass production",
				Tasks: []Task{
					seed("phase3-task1", "Tooling and Fixture Creation",
						"Create solder paste stencils, jigs, fixtures for assembly, and injection molds for enclosures",
						"4-8 weeks", []string{"tooling", "fixtures", "molds"}),
					seed("phase3-task2", "Engineering Validation Test (EVT)",
						"Small batch production (10-50 units) to validate manufacturing process",
						"1-2 weeks", []string{"evt", "validation", "testing"}, "phase3-task1"),
					seed("phase3-task3", "Design Validation Test (DVT)",
						"Larger batch (50-200 units) to ensure product meets design specifications and reliability requirements",
						"2-3 weeks", []string{"dvt", "reliability", "testing"}, "phase3-task2"),
				},
			},
			{
				ID:          "phase4",
				Title:       "Phase 4: Production and Quality Control",
				Description: "Mass production with comprehensive quality control",
				Tasks: []Task{
					seed("phase4-task1", "First Article Inspection (FAI)",
						"Rigorous inspection of first production unit to ensure it matches design specifications",
						"1 week", []string{"fai", "inspection", "quality"}),
					seed("phase4-task2", "Production Line Optimization",
						"Line balancing and optimization to meet production volume targets",
						"1-2 weeks", []string{"production", "optimization", "volume"}, "phase4-task1"),
					seed("phase4-task3", "Quality Control Implementation",
						"Implement ICT, functional testing, EOL testing, sampling and audit procedures",
						"2-3 weeks", []string{"qc", "testing", "procedures"}, "phase4-task2"),
				},
			},
		},
	}
	p.Normalize()
	return p
}

func seed(id, title, description, estimate string, tags []string, dependsOn ...string) Task {
	if dependsOn == nil {
		dependsOn = []string{}
	}
	return Task{
		ID:           id,
		Title:        title,
		Description:  description,
		TimeEstimate: estimate,
		Tags:         tags,
		Status:       TaskStatusPending,
		DependsOn:    dependsOn,
	}
}
