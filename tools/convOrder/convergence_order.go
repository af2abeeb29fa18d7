package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
)

var (
	csvFile string
)

func main() {
	csvFilePtr := flag.String("csvFile", csvFile, "file containing entries of a convergence study")
	flag.Parse()
	csvFile = *csvFilePtr
	if len(csvFile) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	fmt.Printf("Input file: %v\n", csvFile)
	studies := readCSV(csvFile)
	for _, cs := range studies {
		fmt.Printf("Title = %s, Scheme Order = %d, Dt = %8.5f\n", cs.title, cs.order, cs.Dt)
		for i := range cs.numCells {
			fmt.Printf("%d, %v, %v, %v, %v, %v, %v\n",
				cs.numCells[i], cs.uRMS[i], cs.vRMS[i], cs.pRMS[i], cs.uMAX[i], cs.vMAX[i], cs.pMAX[i])
			if i > 0 {
				fmt.Printf("\tobserved order (u,v,p RMS): %5.2f, %5.2f, %5.2f\n",
					cs.ObservedOrder(cs.uRMS, i), cs.ObservedOrder(cs.vRMS, i), cs.ObservedOrder(cs.pRMS, i))
			}
		}
	}
}

type ConvergenceStudy struct {
	title            string
	order            int
	numCells         []int
	Dt               float64
	uRMS, vRMS, pRMS []float64
	uMAX, vMAX, pMAX []float64
}

func NewConvergenceStudy(title string, order int, Dt float64) *ConvergenceStudy {
	return &ConvergenceStudy{
		title: title,
		order: order,
		Dt:    Dt,
	}
}

func (cs *ConvergenceStudy) Add(numCells int, uRMS, vRMS, pRMS, uMAX, vMAX, pMAX float64) {
	cs.numCells = append(cs.numCells, numCells)
	cs.uRMS = append(cs.uRMS, uRMS)
	cs.vRMS = append(cs.vRMS, vRMS)
	cs.pRMS = append(cs.pRMS, pRMS)
	cs.uMAX = append(cs.uMAX, uMAX)
	cs.vMAX = append(cs.vMAX, vMAX)
	cs.pMAX = append(cs.pMAX, pMAX)
}

// ObservedOrder returns the convergence rate between refinement levels i-1
// and i from the error ratio and the cell count ratio.
func (cs *ConvergenceStudy) ObservedOrder(e []float64, i int) float64 {
	return math.Log(e[i-1]/e[i]) / math.Log(float64(cs.numCells[i])/float64(cs.numCells[i-1]))
}

func readCSV(csvFile string) (studies map[string]*ConvergenceStudy) {
	var (
		records                            [][]string
		err                                error
		f                                  *os.File
		ok                                 bool
		cs                                 *ConvergenceStudy
		dt                                 float64
		uRMS, vRMS, pRMS, uMAX, vMAX, pMAX float64
	)
	studies = make(map[string]*ConvergenceStudy)
	if f, err = os.Open(csvFile); err != nil {
		panic(err)
	}
	r := csv.NewReader(bufio.NewReader(f))
	if records, err = r.ReadAll(); err != nil {
		panic(err)
	}
	for i, rec := range records {
		if i == 0 {
			continue
		}
		title, ncellstxt, ntxt, dttxt := rec[0], rec[1], rec[2], rec[3]
		n, _ := strconv.Atoi(ntxt)
		ncells, _ := strconv.Atoi(ncellstxt)
		_, _ = fmt.Sscanf(dttxt, "%f", &dt)
		combTitle := title + ntxt
		if cs, ok = studies[combTitle]; !ok {
			cs = NewConvergenceStudy(title, n, dt)
			studies[combTitle] = cs
		}
		_, _ = fmt.Sscanf(rec[4], "%f", &uRMS)
		_, _ = fmt.Sscanf(rec[5], "%f", &vRMS)
		_, _ = fmt.Sscanf(rec[6], "%f", &pRMS)
		_, _ = fmt.Sscanf(rec[7], "%f", &uMAX)
		_, _ = fmt.Sscanf(rec[8], "%f", &vMAX)
		_, _ = fmt.Sscanf(rec[9], "%f", &pMAX)
		cs.Add(ncells, uRMS, vRMS, pRMS, uMAX, vMAX, pMAX)
	}
	return
}
